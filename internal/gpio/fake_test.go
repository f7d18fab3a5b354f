package gpio

import (
	"errors"
	"testing"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

var (
	_ Inputs  = (*FakeInputs)(nil)
	_ Inputs  = (*RealInputs)(nil)
	_ Outputs = (*FakeOutputs)(nil)
	_ Outputs = (*RealOutputs)(nil)
)

func TestFakeInputsRead(t *testing.T) {
	samples := []Sample{
		{Backlight: Pressed, Override: Released},
		{Backlight: Released, Override: Pressed},
		{Backlight: 1.2, Override: 2.0},
	}

	f := NewFakeInputs(samples)

	for i, want := range samples {
		bl, ov, err := f.Read()
		if err != nil {
			t.Fatalf("sample %d: unexpected error: %v", i, err)
		}
		if bl != want.Backlight || ov != want.Override {
			t.Errorf("sample %d: expected (%v, %v), got (%v, %v)", i, want.Backlight, want.Override, bl, ov)
		}
	}

	// Fourth read should repeat last sample
	bl, ov, err := f.Read()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bl != 1.2 || ov != 2.0 {
		t.Errorf("repeat: expected (1.2, 2), got (%v, %v)", bl, ov)
	}
}

func TestFakeInputsNoSamples(t *testing.T) {
	f := NewFakeInputs(nil)

	_, _, err := f.Read()
	if err == nil {
		t.Error("expected error with no samples")
	}
}

func TestFakeInputsError(t *testing.T) {
	f := NewFakeInputs([]Sample{{Backlight: Pressed}})
	f.ReadError = errors.New("simulated error")

	_, _, err := f.Read()
	if err == nil {
		t.Fatal("expected error to be returned")
	}
	if err.Error() != "simulated error" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestFakeInputsCloseAndReset(t *testing.T) {
	f := NewFakeInputs([]Sample{{Backlight: Pressed}, {Override: Pressed}})

	f.Read()
	if err := f.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !f.Closed {
		t.Error("should be closed after Close()")
	}

	f.Reset()
	if f.Closed {
		t.Error("reset should clear Closed")
	}
	bl, _, _ := f.Read()
	if bl != Pressed {
		t.Errorf("after reset: expected first sample, got backlight %v", bl)
	}
}

func TestFakeOutputsRecordsWrites(t *testing.T) {
	f := NewFakeOutputs()

	f.SetRelay(true)
	f.SetLED(true)
	f.SetRelay(false)

	if f.Relay || !f.LED {
		t.Errorf("expected relay off, LED on; got relay %v, LED %v", f.Relay, f.LED)
	}
	if len(f.RelayWrites) != 2 || len(f.LEDWrites) != 1 {
		t.Errorf("unexpected write history: relay %v, LED %v", f.RelayWrites, f.LEDWrites)
	}

	if err := f.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.LED || !f.Closed {
		t.Error("close should switch outputs off")
	}
}

func TestFakeOutputsError(t *testing.T) {
	f := NewFakeOutputs()
	f.WriteError = errors.New("bus fault")

	if err := f.SetRelay(true); err == nil {
		t.Error("expected relay error")
	}
	if err := f.SetLED(true); err == nil {
		t.Error("expected LED error")
	}
	if f.Relay || f.LED {
		t.Error("failed writes must not change state")
	}
}

func TestDriveDuty(t *testing.T) {
	tests := []struct {
		percent int
		want    gpio.Duty
		full    bool
	}{
		{100, gpio.DutyMax, true},
		{50, gpio.DutyHalf, false},
		{25, gpio.DutyMax / 4, false},
	}
	for _, tt := range tests {
		d := Drive{DutyPercent: tt.percent, Frequency: physic.KiloHertz}
		if got := d.Duty(); got != tt.want {
			t.Errorf("%d%%: duty %v, want %v", tt.percent, got, tt.want)
		}
		if d.Full() != tt.full {
			t.Errorf("%d%%: full %v, want %v", tt.percent, d.Full(), tt.full)
		}
	}
}

func TestDriveValidate(t *testing.T) {
	if err := DefaultDrive.Validate(); err != nil {
		t.Errorf("default drive invalid: %v", err)
	}
	if err := (Drive{DutyPercent: 100}).Validate(); err != nil {
		t.Errorf("full drive needs no frequency: %v", err)
	}
	for _, d := range []Drive{{DutyPercent: 0}, {DutyPercent: 101}, {DutyPercent: 50}} {
		if err := d.Validate(); err == nil {
			t.Errorf("expected error for %+v", d)
		}
	}
}
