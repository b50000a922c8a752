package models

import (
	"testing"
	"time"
)

func TestIntake_Validate(t *testing.T) {
	tests := []struct {
		name    string
		intake  Intake
		wantErr bool
	}{
		{"check-in ok", Intake{Kind: IntakeCheckIn, CheckIn: &CheckInIntake{FaultDescription: "רעש"}}, false},
		{"appointment ok", Intake{Kind: IntakeAppointment, Appointment: &AppointmentIntake{SlotAt: time.Now(), ServiceType: "טסט"}}, false},
		{"manual ok", Intake{Kind: IntakeManual, Manual: &ManualIntake{}}, false},
		{"check-in missing variant", Intake{Kind: IntakeCheckIn}, true},
		{"appointment missing variant", Intake{Kind: IntakeAppointment}, true},
		{"manual missing variant", Intake{Kind: IntakeManual}, true},
		{"empty kind", Intake{}, true},
		{"unknown kind", Intake{Kind: "WALK_IN"}, true},
	}
	for _, tt := range tests {
		err := tt.intake.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: Validate() error = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
	}
}

func TestIntake_ScanValue(t *testing.T) {
	in := Intake{
		Kind: IntakeCheckIn,
		CheckIn: &CheckInIntake{
			FaultDescription: "הגה רועד במהירות",
			Mileage:          87000,
			PaymentMethod:    "CARD",
		},
	}
	v, err := in.Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}

	var out Intake
	if err := out.Scan(v); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if out.Kind != IntakeCheckIn || out.CheckIn == nil {
		t.Fatalf("round trip lost the variant: %+v", out)
	}
	if out.CheckIn.Mileage != 87000 || out.CheckIn.FaultDescription != in.CheckIn.FaultDescription {
		t.Errorf("round trip = %+v, want %+v", out.CheckIn, in.CheckIn)
	}
	// Unset variants stay nil.
	if out.Appointment != nil || out.Manual != nil {
		t.Errorf("unset variants populated: %+v", out)
	}
}

func TestIntake_ScanNil(t *testing.T) {
	var out Intake
	if err := out.Scan(nil); err != nil {
		t.Fatalf("Scan(nil): %v", err)
	}
	if out.Kind != "" {
		t.Errorf("Scan(nil) = %+v, want zero value", out)
	}
}

func TestStringList_ContainsWithout(t *testing.T) {
	l := StringList{"u-a", "u-b"}
	if !l.Contains("u-a") || l.Contains("u-c") {
		t.Errorf("Contains misbehaved on %v", l)
	}
	got := l.Without("u-a")
	if len(got) != 1 || got[0] != "u-b" {
		t.Errorf("Without = %v, want [u-b]", got)
	}
	// Original untouched.
	if len(l) != 2 {
		t.Errorf("Without mutated receiver: %v", l)
	}
}
