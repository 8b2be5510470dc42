package occupancy

import "fmt"

// State is the occupancy state of one slot.
//
// States are evaluated in declaration order: Reserved wins over any pixel
// count, then the count decides between Free, Misaligned and Occupied.
type State int

const (
	Reserved State = iota
	Free
	Misaligned
	Occupied
)

var stateNames = [...]string{
	Reserved:   "reserved",
	Free:       "free",
	Misaligned: "misaligned",
	Occupied:   "occupied",
}

var stateLabels = [...]string{
	Reserved:   "Reserved",
	Free:       "Free",
	Misaligned: "Misaligned",
	Occupied:   "Occupied",
}

// States lists every state in evaluation order.
func States() []State {
	return []State{Reserved, Free, Misaligned, Occupied}
}

func (s State) valid() bool {
	return s >= Reserved && s <= Occupied
}

// String returns the lower-case wire name of the state.
func (s State) String() string {
	if !s.valid() {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// Label returns the capitalized name drawn on overlays.
func (s State) Label() string {
	if !s.valid() {
		return s.String()
	}
	return stateLabels[s]
}

// MarshalText encodes the state as its wire name.
func (s State) MarshalText() ([]byte, error) {
	if !s.valid() {
		return nil, fmt.Errorf("invalid occupancy state %d", int(s))
	}
	return []byte(stateNames[s]), nil
}

// UnmarshalText decodes a wire name produced by MarshalText.
func (s *State) UnmarshalText(text []byte) error {
	for i, name := range stateNames {
		if name == string(text) {
			*s = State(i)
			return nil
		}
	}
	return fmt.Errorf("unknown occupancy state %q", text)
}
