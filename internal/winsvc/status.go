package winsvc

import (
	"errors"
	"fmt"
	"time"
)

// DecodeError reports a value received from the service control manager
// that is outside the known enumeration. Unknown values are never
// coerced to a default.
type DecodeError struct {
	What string
	Raw  uint32
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("unknown %s value %#x", e.What, e.Raw)
}

// Validation failures for composite values, detected before any call to
// the SCM is made.
var (
	ErrPreshutdownConflict      = errors.New("accepted controls cannot combine preshutdown with shutdown")
	ErrCheckpointWithoutPending = errors.New("checkpoint must be zero unless the state is pending")
	ErrNotSendable              = errors.New("control command cannot be sent to a service")
)

// ManagerAccess is the access mask requested when connecting to the
// service control manager. Operations attempted through the connection
// fail if the corresponding right was not requested at connect time.
type ManagerAccess uint32

const (
	ManagerConnect          ManagerAccess = 0x0001
	ManagerCreateService    ManagerAccess = 0x0002
	ManagerEnumerateService ManagerAccess = 0x0004
	ManagerAllAccess        ManagerAccess = 0xF003F
)

// ServiceAccess is the access mask requested when creating or opening a
// service entry.
type ServiceAccess uint32

const (
	AccessQueryConfig   ServiceAccess = 0x0001
	AccessChangeConfig  ServiceAccess = 0x0002
	AccessQueryStatus   ServiceAccess = 0x0004
	AccessStart         ServiceAccess = 0x0010
	AccessStop          ServiceAccess = 0x0020
	AccessPauseContinue ServiceAccess = 0x0040
	AccessInterrogate   ServiceAccess = 0x0080
	AccessDelete        ServiceAccess = 0x10000 // standard DELETE right
	AccessAll           ServiceAccess = 0xF01FF
)

// State is the run state of a service as reported by the SCM.
type State uint32

const (
	Stopped         State = 0x0001
	StartPending    State = 0x0002
	StopPending     State = 0x0003
	Running         State = 0x0004
	ContinuePending State = 0x0005
	PausePending    State = 0x0006
	Paused          State = 0x0007
)

var stateNames = map[State]string{
	Stopped:         "stopped",
	StartPending:    "start pending",
	StopPending:     "stop pending",
	Running:         "running",
	ContinuePending: "continue pending",
	PausePending:    "pause pending",
	Paused:          "paused",
}

// StateFromRaw decodes an SCM state code. Unknown codes are a hard
// decode error.
func StateFromRaw(raw uint32) (State, error) {
	s := State(raw)
	if _, ok := stateNames[s]; !ok {
		return 0, &DecodeError{What: "service state", Raw: raw}
	}
	return s, nil
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%#x)", uint32(s))
}

// Pending reports whether the state is one of the four transitional
// states during which a checkpoint may be reported.
func (s State) Pending() bool {
	switch s {
	case StartPending, StopPending, ContinuePending, PausePending:
		return true
	}
	return false
}

// ServiceType describes how the SCM hosts a service.
type ServiceType uint32

const (
	KernelDriver     ServiceType = 0x0001
	FileSystemDriver ServiceType = 0x0002
	OwnProcess       ServiceType = 0x0010
	ShareProcess     ServiceType = 0x0020

	// interactiveProcess may be combined with OwnProcess or
	// ShareProcess by legacy services.
	interactiveProcess ServiceType = 0x0100
)

var serviceTypeNames = map[ServiceType]string{
	KernelDriver:                      "kernel driver",
	FileSystemDriver:                  "file system driver",
	OwnProcess:                        "own process",
	ShareProcess:                      "share process",
	OwnProcess | interactiveProcess:   "own process (interactive)",
	ShareProcess | interactiveProcess: "share process (interactive)",
}

// ServiceTypeFromRaw decodes an SCM service type code, failing closed on
// anything outside the known table.
func ServiceTypeFromRaw(raw uint32) (ServiceType, error) {
	t := ServiceType(raw)
	if _, ok := serviceTypeNames[t]; !ok {
		return 0, &DecodeError{What: "service type", Raw: raw}
	}
	return t, nil
}

func (t ServiceType) String() string {
	if name, ok := serviceTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("service type(%#x)", uint32(t))
}

// StartType is the start policy of a service entry.
type StartType uint32

const (
	AutoStart StartType = 0x0002
	OnDemand  StartType = 0x0003
	Disabled  StartType = 0x0004
)

var startTypeNames = map[StartType]string{
	AutoStart: "auto",
	OnDemand:  "demand",
	Disabled:  "disabled",
}

func (t StartType) String() string {
	if name, ok := startTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("start type(%#x)", uint32(t))
}

// ParseStartType maps a configuration string to a start policy.
func ParseStartType(s string) (StartType, error) {
	switch s {
	case "auto":
		return AutoStart, nil
	case "demand", "manual":
		return OnDemand, nil
	case "disabled":
		return Disabled, nil
	}
	return 0, fmt.Errorf("unknown start type %q", s)
}

// ErrorControl is the SCM's failure policy for a service that cannot
// start during boot.
type ErrorControl uint32

const (
	ErrorControlIgnore   ErrorControl = 0x0000
	ErrorControlNormal   ErrorControl = 0x0001
	ErrorControlSevere   ErrorControl = 0x0002
	ErrorControlCritical ErrorControl = 0x0003
)

// AcceptedControls is the set of control commands a running service is
// willing to receive.
type AcceptedControls uint32

const (
	AcceptStop          AcceptedControls = 0x0001
	AcceptPauseContinue AcceptedControls = 0x0002
	AcceptShutdown      AcceptedControls = 0x0004
	AcceptParamChange   AcceptedControls = 0x0008
	AcceptNetBindChange AcceptedControls = 0x0010
	AcceptPreshutdown   AcceptedControls = 0x0100
)

const acceptedControlsMask = AcceptStop | AcceptPauseContinue | AcceptShutdown |
	AcceptParamChange | AcceptNetBindChange | AcceptPreshutdown

// validateAcceptedControls rejects unknown bits and the mutually
// exclusive preshutdown+shutdown combination. A service that accepts
// preshutdown gets no separate shutdown notification, so requesting both
// is always a caller mistake and is never silently resolved.
func validateAcceptedControls(a AcceptedControls) error {
	if unknown := a &^ acceptedControlsMask; unknown != 0 {
		return &DecodeError{What: "accepted controls", Raw: uint32(unknown)}
	}
	if a&AcceptPreshutdown != 0 && a&AcceptShutdown != 0 {
		return ErrPreshutdownConflict
	}
	return nil
}

// AcceptedControlsFromRaw decodes an SCM accepted-controls mask.
func AcceptedControlsFromRaw(raw uint32) (AcceptedControls, error) {
	a := AcceptedControls(raw)
	if err := validateAcceptedControls(a); err != nil {
		return 0, err
	}
	return a, nil
}

// Control is an inbound control command decoded from the raw SCM code.
type Control uint32

const (
	ControlStop           Control = 0x0001
	ControlPause          Control = 0x0002
	ControlContinue       Control = 0x0003
	ControlInterrogate    Control = 0x0004
	ControlShutdown       Control = 0x0005
	ControlParamChange    Control = 0x0006
	ControlNetBindAdd     Control = 0x0007
	ControlNetBindRemove  Control = 0x0008
	ControlNetBindEnable  Control = 0x0009
	ControlNetBindDisable Control = 0x000A
	ControlPreshutdown    Control = 0x000F
)

var controlNames = map[Control]string{
	ControlStop:           "stop",
	ControlPause:          "pause",
	ControlContinue:       "continue",
	ControlInterrogate:    "interrogate",
	ControlShutdown:       "shutdown",
	ControlParamChange:    "param change",
	ControlNetBindAdd:     "netbind add",
	ControlNetBindRemove:  "netbind remove",
	ControlNetBindEnable:  "netbind enable",
	ControlNetBindDisable: "netbind disable",
	ControlPreshutdown:    "preshutdown",
}

// ControlFromRaw decodes a raw control code. Codes outside the table
// are reported as a decode error; the control-handler bridge answers
// those with "not implemented" instead of guessing a known variant.
func ControlFromRaw(raw uint32) (Control, error) {
	c := Control(raw)
	if _, ok := controlNames[c]; !ok {
		return 0, &DecodeError{What: "control command", Raw: raw}
	}
	return c, nil
}

func (c Control) String() string {
	if name, ok := controlNames[c]; ok {
		return name
	}
	return fmt.Sprintf("control(%#x)", uint32(c))
}

// Sendable reports whether the command may be sent to a service through
// ControlService. Shutdown and preshutdown originate from the system
// only.
func (c Control) Sendable() bool {
	switch c {
	case ControlShutdown, ControlPreshutdown:
		return false
	}
	_, ok := controlNames[c]
	return ok
}

// Win32 sentinel selecting the service-specific exit code encoding.
const errorServiceSpecificError = 0x042A // ERROR_SERVICE_SPECIFIC_ERROR

// ExitCode is the exit status a service reports to the SCM: either a
// generic Win32 code or a service-specific code. The two variants are
// transmitted through two fields plus a sentinel selecting which one is
// active.
type ExitCode struct {
	specific bool
	code     uint32
}

// NoError is the exit code of a healthy service.
var NoError = GenericExitCode(0)

// GenericExitCode builds an exit code in the Win32 error space.
func GenericExitCode(code uint32) ExitCode {
	return ExitCode{code: code}
}

// ServiceSpecificExitCode builds an exit code in the service's own
// error space.
func ServiceSpecificExitCode(code uint32) ExitCode {
	return ExitCode{specific: true, code: code}
}

// ServiceSpecific reports which encoding is active.
func (e ExitCode) ServiceSpecific() bool { return e.specific }

// Code returns the numeric code in the active encoding.
func (e ExitCode) Code() uint32 { return e.code }

func (e ExitCode) toRaw() (win32, specific uint32) {
	if e.specific {
		return errorServiceSpecificError, e.code
	}
	return e.code, 0
}

// exitCodeFromRaw is the exact inverse of toRaw.
func exitCodeFromRaw(win32, specific uint32) ExitCode {
	if win32 == errorServiceSpecificError {
		return ServiceSpecificExitCode(specific)
	}
	return GenericExitCode(win32)
}

func (e ExitCode) String() string {
	if e.specific {
		return fmt.Sprintf("service-specific(%d)", e.code)
	}
	return fmt.Sprintf("generic(%d)", e.code)
}

// rawStatus mirrors the SCM's SERVICE_STATUS structure field for field.
type rawStatus struct {
	serviceType             uint32
	currentState            uint32
	controlsAccepted        uint32
	win32ExitCode           uint32
	serviceSpecificExitCode uint32
	checkPoint              uint32
	waitHint                uint32 // milliseconds
}

// Status is a validated service status snapshot. Construct with
// NewStatus; the zero value is not a valid status to report.
type Status struct {
	serviceType ServiceType
	state       State
	accepts     AcceptedControls
	exitCode    ExitCode
	checkpoint  uint32
	waitHint    time.Duration
}

// NewStatus validates and builds a status snapshot. A non-zero
// checkpoint is only meaningful while a transition is pending and is
// rejected otherwise, before any SCM call is attempted. The wait hint
// is transmitted with millisecond precision.
func NewStatus(serviceType ServiceType, state State, accepts AcceptedControls,
	exitCode ExitCode, checkpoint uint32, waitHint time.Duration) (Status, error) {

	if _, ok := serviceTypeNames[serviceType]; !ok {
		return Status{}, &DecodeError{What: "service type", Raw: uint32(serviceType)}
	}
	if _, ok := stateNames[state]; !ok {
		return Status{}, &DecodeError{What: "service state", Raw: uint32(state)}
	}
	if err := validateAcceptedControls(accepts); err != nil {
		return Status{}, err
	}
	if checkpoint != 0 && !state.Pending() {
		return Status{}, fmt.Errorf("state %s with checkpoint %d: %w",
			state, checkpoint, ErrCheckpointWithoutPending)
	}
	return Status{
		serviceType: serviceType,
		state:       state,
		accepts:     accepts,
		exitCode:    exitCode,
		checkpoint:  checkpoint,
		waitHint:    waitHint,
	}, nil
}

func (s Status) ServiceType() ServiceType  { return s.serviceType }
func (s Status) State() State              { return s.state }
func (s Status) Accepts() AcceptedControls { return s.accepts }
func (s Status) ExitCode() ExitCode        { return s.exitCode }
func (s Status) Checkpoint() uint32        { return s.checkpoint }
func (s Status) WaitHint() time.Duration   { return s.waitHint }

func (s Status) toRaw() rawStatus {
	win32, specific := s.exitCode.toRaw()
	return rawStatus{
		serviceType:             uint32(s.serviceType),
		currentState:            uint32(s.state),
		controlsAccepted:        uint32(s.accepts),
		win32ExitCode:           win32,
		serviceSpecificExitCode: specific,
		checkPoint:              s.checkpoint,
		waitHint:                uint32(s.waitHint / time.Millisecond),
	}
}

// statusFromRaw decodes a SERVICE_STATUS received from the SCM, failing
// closed on any enumerated field outside its table.
func statusFromRaw(raw rawStatus) (Status, error) {
	serviceType, err := ServiceTypeFromRaw(raw.serviceType)
	if err != nil {
		return Status{}, err
	}
	state, err := StateFromRaw(raw.currentState)
	if err != nil {
		return Status{}, err
	}
	accepts, err := AcceptedControlsFromRaw(raw.controlsAccepted)
	if err != nil {
		return Status{}, err
	}
	return Status{
		serviceType: serviceType,
		state:       state,
		accepts:     accepts,
		exitCode:    exitCodeFromRaw(raw.win32ExitCode, raw.serviceSpecificExitCode),
		checkpoint:  raw.checkPoint,
		waitHint:    time.Duration(raw.waitHint) * time.Millisecond,
	}, nil
}

// Descriptor describes a service entry to be registered with the SCM.
type Descriptor struct {
	Name         string
	DisplayName  string
	Type         ServiceType
	StartType    StartType
	ErrorControl ErrorControl
	// ExecutablePath and Arguments are quoted and joined into the
	// launch command stored in the service entry.
	ExecutablePath string
	Arguments      []string
	// AccountName empty means the service runs as LocalSystem.
	AccountName     string
	AccountPassword string
}

// launchCommand builds the command line stored with the service entry.
// Each element is escaped so the system command-line tokenizer
// reproduces it exactly.
func (d Descriptor) launchCommand() string {
	return composeCommandLine(append([]string{d.ExecutablePath}, d.Arguments...))
}
