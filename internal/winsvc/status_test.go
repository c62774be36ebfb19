package winsvc

import (
	"errors"
	"testing"
	"time"
)

func TestStateRoundTrip(t *testing.T) {
	rawStates := []uint32{1, 2, 3, 4, 5, 6, 7}
	for _, raw := range rawStates {
		state, err := StateFromRaw(raw)
		if err != nil {
			t.Fatalf("StateFromRaw(%d) failed: %v", raw, err)
		}
		if uint32(state) != raw {
			t.Errorf("state %s round-tripped %d -> %d", state, raw, uint32(state))
		}
	}
}

func TestStateDecodeUnknown(t *testing.T) {
	for _, raw := range []uint32{0, 8, 0xFF, 0xFFFFFFFF} {
		if _, err := StateFromRaw(raw); err == nil {
			t.Errorf("StateFromRaw(%#x) succeeded, want decode error", raw)
		}
		var decodeErr *DecodeError
		_, err := StateFromRaw(raw)
		if !errors.As(err, &decodeErr) {
			t.Errorf("StateFromRaw(%#x) = %v, want *DecodeError", raw, err)
		}
	}
}

func TestServiceTypeDecode(t *testing.T) {
	tests := []struct {
		raw  uint32
		want ServiceType
		ok   bool
	}{
		{0x0001, KernelDriver, true},
		{0x0002, FileSystemDriver, true},
		{0x0010, OwnProcess, true},
		{0x0020, ShareProcess, true},
		{0x0110, OwnProcess | interactiveProcess, true},
		{0x0000, 0, false},
		{0x0040, 0, false},
	}
	for _, tt := range tests {
		got, err := ServiceTypeFromRaw(tt.raw)
		if tt.ok != (err == nil) {
			t.Errorf("ServiceTypeFromRaw(%#x) err = %v, want ok=%v", tt.raw, err, tt.ok)
			continue
		}
		if tt.ok && got != tt.want {
			t.Errorf("ServiceTypeFromRaw(%#x) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestExitCodeEncodeDecodeIdentity(t *testing.T) {
	codes := []ExitCode{
		NoError,
		GenericExitCode(0),
		GenericExitCode(5),
		GenericExitCode(0x42A - 1),
		ServiceSpecificExitCode(0),
		ServiceSpecificExitCode(1),
		ServiceSpecificExitCode(0xFFFFFFFF),
	}
	for _, code := range codes {
		win32, specific := code.toRaw()
		got := exitCodeFromRaw(win32, specific)
		if got != code {
			t.Errorf("exit code %s decoded to %s after encode", code, got)
		}
	}
}

func TestExitCodeSentinel(t *testing.T) {
	win32, specific := ServiceSpecificExitCode(7).toRaw()
	if win32 != 0x42A {
		t.Errorf("service-specific Win32 field = %#x, want sentinel 0x42A", win32)
	}
	if specific != 7 {
		t.Errorf("service-specific field = %d, want 7", specific)
	}

	win32, specific = GenericExitCode(7).toRaw()
	if win32 != 7 || specific != 0 {
		t.Errorf("generic encoding = (%d, %d), want (7, 0)", win32, specific)
	}
}

func TestAcceptedControlsPreshutdownConflict(t *testing.T) {
	if _, err := AcceptedControlsFromRaw(uint32(AcceptPreshutdown | AcceptShutdown)); !errors.Is(err, ErrPreshutdownConflict) {
		t.Errorf("preshutdown|shutdown decoded with err = %v, want ErrPreshutdownConflict", err)
	}

	_, err := NewStatus(OwnProcess, Running, AcceptPreshutdown|AcceptShutdown, NoError, 0, 0)
	if !errors.Is(err, ErrPreshutdownConflict) {
		t.Errorf("NewStatus with preshutdown|shutdown err = %v, want ErrPreshutdownConflict", err)
	}
}

func TestAcceptedControlsUnknownBits(t *testing.T) {
	if _, err := AcceptedControlsFromRaw(0x8000); err == nil {
		t.Error("unknown accepted-controls bit decoded without error")
	}
	if _, err := AcceptedControlsFromRaw(uint32(AcceptStop | AcceptShutdown)); err != nil {
		t.Errorf("stop|shutdown rejected: %v", err)
	}
}

func TestStatusCheckpointValidation(t *testing.T) {
	// A checkpoint outside a pending transition is rejected before any
	// SCM call would be made.
	_, err := NewStatus(OwnProcess, Running, AcceptStop, NoError, 5, 0)
	if !errors.Is(err, ErrCheckpointWithoutPending) {
		t.Errorf("Running with checkpoint 5: err = %v, want ErrCheckpointWithoutPending", err)
	}

	status, err := NewStatus(OwnProcess, StopPending, 0, NoError, 5, 2*time.Second)
	if err != nil {
		t.Fatalf("StopPending with checkpoint 5 rejected: %v", err)
	}
	if status.Checkpoint() != 5 {
		t.Errorf("checkpoint = %d, want 5", status.Checkpoint())
	}
}

func TestStatusRawRoundTrip(t *testing.T) {
	status, err := NewStatus(OwnProcess, StartPending, AcceptStop|AcceptShutdown,
		ServiceSpecificExitCode(3), 2, 1500*time.Millisecond)
	if err != nil {
		t.Fatalf("NewStatus failed: %v", err)
	}

	raw := status.toRaw()
	if raw.waitHint != 1500 {
		t.Errorf("wait hint = %d ms, want 1500", raw.waitHint)
	}

	decoded, err := statusFromRaw(raw)
	if err != nil {
		t.Fatalf("statusFromRaw failed: %v", err)
	}
	if decoded != status {
		t.Errorf("status round trip mismatch: %+v != %+v", decoded, status)
	}
}

func TestStatusFromRawFailsClosed(t *testing.T) {
	good, _ := NewStatus(OwnProcess, Running, AcceptStop, NoError, 0, 0)
	raw := good.toRaw()

	bad := raw
	bad.currentState = 99
	if _, err := statusFromRaw(bad); err == nil {
		t.Error("unknown state decoded without error")
	}

	bad = raw
	bad.serviceType = 0x4000
	if _, err := statusFromRaw(bad); err == nil {
		t.Error("unknown service type decoded without error")
	}
}

func TestControlDecodeUnknown(t *testing.T) {
	known := []uint32{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 0x0F}
	for _, raw := range known {
		c, err := ControlFromRaw(raw)
		if err != nil {
			t.Errorf("ControlFromRaw(%#x) failed: %v", raw, err)
			continue
		}
		if uint32(c) != raw {
			t.Errorf("control %s round-tripped %#x -> %#x", c, raw, uint32(c))
		}
	}

	for _, raw := range []uint32{0, 0x0B, 0x10, 0x20, 0x80, 0xFFFFFFFF} {
		if _, err := ControlFromRaw(raw); err == nil {
			t.Errorf("ControlFromRaw(%#x) succeeded, want decode error", raw)
		}
	}
}

func TestControlSendable(t *testing.T) {
	if ControlShutdown.Sendable() || ControlPreshutdown.Sendable() {
		t.Error("shutdown controls must not be sendable")
	}
	for _, c := range []Control{ControlStop, ControlPause, ControlContinue, ControlInterrogate, ControlParamChange} {
		if !c.Sendable() {
			t.Errorf("%s not sendable", c)
		}
	}
}

func TestParseStartType(t *testing.T) {
	tests := []struct {
		in   string
		want StartType
		ok   bool
	}{
		{"auto", AutoStart, true},
		{"demand", OnDemand, true},
		{"manual", OnDemand, true},
		{"disabled", Disabled, true},
		{"boot", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, err := ParseStartType(tt.in)
		if tt.ok != (err == nil) {
			t.Errorf("ParseStartType(%q) err = %v, want ok=%v", tt.in, err, tt.ok)
			continue
		}
		if tt.ok && got != tt.want {
			t.Errorf("ParseStartType(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
