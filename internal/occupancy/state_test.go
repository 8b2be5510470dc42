package occupancy

import "testing"

func TestState_Names(t *testing.T) {
	tests := []struct {
		s     State
		name  string
		label string
	}{
		{Reserved, "reserved", "Reserved"},
		{Free, "free", "Free"},
		{Misaligned, "misaligned", "Misaligned"},
		{Occupied, "occupied", "Occupied"},
	}
	for _, tt := range tests {
		if got := tt.s.String(); got != tt.name {
			t.Errorf("String: got %s, want %s", got, tt.name)
		}
		if got := tt.s.Label(); got != tt.label {
			t.Errorf("Label: got %s, want %s", got, tt.label)
		}

		text, err := tt.s.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText failed: %v", err)
		}
		var back State
		if err := back.UnmarshalText(text); err != nil {
			t.Fatalf("UnmarshalText(%s) failed: %v", text, err)
		}
		if back != tt.s {
			t.Errorf("round trip: got %s, want %s", back, tt.s)
		}
	}
}

func TestState_Invalid(t *testing.T) {
	bad := State(42)
	if got := bad.String(); got != "State(42)" {
		t.Errorf("String: got %s", got)
	}
	if _, err := bad.MarshalText(); err == nil {
		t.Error("MarshalText should fail for an unknown state")
	}

	var s State
	if err := s.UnmarshalText([]byte("parked")); err == nil {
		t.Error("UnmarshalText should fail for an unknown name")
	}
}

func TestStates_Order(t *testing.T) {
	all := States()
	if len(all) != 4 {
		t.Fatalf("got %d states, want 4", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i] <= all[i-1] {
			t.Errorf("states not in evaluation order at %d", i)
		}
	}
}
