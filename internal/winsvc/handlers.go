package winsvc

import "sync"

// Disposition is a control handler's answer to the SCM.
type Disposition uint32

const (
	// Acknowledge accepts the control request (NO_ERROR).
	Acknowledge Disposition = 0
	// NotImplemented reports the control as unsupported
	// (ERROR_CALL_NOT_IMPLEMENTED).
	NotImplemented Disposition = 120
)

// Handler receives decoded control requests on an SCM-owned thread. It
// must return promptly: control dispatch for the whole service is
// stalled while it runs. The status handle it receives may be used from
// inside the handler or stashed for any other goroutine.
type Handler func(StatusHandle, Control) Disposition

// StatusHandle pushes status snapshots to the SCM. It is obtained once
// from RegisterHandler, is freely copyable and usable from any
// goroutine, and stays valid for the lifetime of the process's service
// registration rather than of any local value.
type StatusHandle struct {
	h uintptr
}

// handlerRegistry maps the opaque context value handed to the SCM back
// to the registered handler. The SCM only ever sees a small token, so
// no Go value has to stay pinned for the duration of the registration.
type handlerRegistry struct {
	mu   sync.Mutex
	next uintptr
	regs map[uintptr]*registration
}

type registration struct {
	handler Handler
	status  StatusHandle
}

var handlers = handlerRegistry{regs: make(map[uintptr]*registration)}

// add reserves a token for handler. The status handle is bound
// afterwards, once the SCM registration call has produced it.
func (r *handlerRegistry) add(h Handler) uintptr {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	token := r.next
	r.regs[token] = &registration{handler: h}
	return token
}

func (r *handlerRegistry) bind(token uintptr, status StatusHandle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if reg, ok := r.regs[token]; ok {
		reg.status = status
	}
}

func (r *handlerRegistry) lookup(token uintptr) (Handler, StatusHandle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg, ok := r.regs[token]
	if !ok {
		return nil, StatusHandle{}, false
	}
	return reg.handler, reg.status, true
}

// remove discards a reserved token after a failed registration. A
// successful registration lasts for the remaining process lifetime, so
// there is no removal path for it.
func (r *handlerRegistry) remove(token uintptr) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.regs, token)
}
