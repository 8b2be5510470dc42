package occupancy

import (
	"errors"
	"fmt"
	"image"

	"github.com/ironsheep/parkwatch/internal/imaging"
	"github.com/ironsheep/parkwatch/internal/slots"
)

// ErrInvalidThresholds is returned when Thresholds are not ordered.
var ErrInvalidThresholds = errors.New("invalid occupancy thresholds")

// Thresholds splits nonzero pixel counts into Free, Misaligned and Occupied.
type Thresholds struct {
	// FreeBelow: counts strictly below this are Free.
	FreeBelow int `json:"free_below" toml:"free_below"`
	// OccupiedFrom: counts at or above this are Occupied.
	OccupiedFrom int `json:"occupied_from" toml:"occupied_from"`
}

// DefaultThresholds returns the thresholds tuned for 107x48 slots.
func DefaultThresholds() Thresholds {
	return Thresholds{FreeBelow: 900, OccupiedFrom: 1500}
}

// Validate requires 0 < FreeBelow <= OccupiedFrom.
func (t Thresholds) Validate() error {
	if t.FreeBelow <= 0 {
		return fmt.Errorf("%w: free_below must be positive, got %d", ErrInvalidThresholds, t.FreeBelow)
	}
	if t.OccupiedFrom < t.FreeBelow {
		return fmt.Errorf("%w: occupied_from (%d) must be >= free_below (%d)", ErrInvalidThresholds, t.OccupiedFrom, t.FreeBelow)
	}
	return nil
}

// State maps the nonzero pixel count of an unreserved slot to its state.
func (t Thresholds) State(count int) State {
	switch {
	case count < t.FreeBelow:
		return Free
	case count < t.OccupiedFrom:
		return Misaligned
	default:
		return Occupied
	}
}

// ClassifyCount applies the reserved override and then the thresholds.
func ClassifyCount(count int, reserved bool, t Thresholds) State {
	if reserved {
		return Reserved
	}
	return t.State(count)
}

// SlotClassification is the outcome for one slot.
type SlotClassification struct {
	Index int   `json:"index"`
	State State `json:"state"`
	Count int   `json:"count"`
}

// FrameResult is the outcome for every slot of one frame, in configuration
// order.
type FrameResult struct {
	Slots      []SlotClassification `json:"slots"`
	FreeCount  int                  `json:"free_count"`
	TotalCount int                  `json:"total_count"`
}

// Tally counts slots per state.
type Tally struct {
	Reserved   int `json:"reserved"`
	Free       int `json:"free"`
	Misaligned int `json:"misaligned"`
	Occupied   int `json:"occupied"`
}

// Total returns the number of slots tallied.
func (t Tally) Total() int {
	return t.Reserved + t.Free + t.Misaligned + t.Occupied
}

// Tally returns the per-state slot counts of r.
func (r *FrameResult) Tally() Tally {
	var t Tally
	for _, s := range r.Slots {
		switch s.State {
		case Reserved:
			t.Reserved++
		case Free:
			t.Free++
		case Misaligned:
			t.Misaligned++
		case Occupied:
			t.Occupied++
		}
	}
	return t
}

// Classifier assigns an occupancy state to every slot of a binary mask.
// It holds only its thresholds and may be shared between goroutines.
type Classifier struct {
	thresholds Thresholds
}

// NewClassifier validates t and returns a Classifier.
func NewClassifier(t Thresholds) (*Classifier, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &Classifier{thresholds: t}, nil
}

// Thresholds returns the thresholds the classifier applies.
func (c *Classifier) Thresholds() Thresholds {
	return c.thresholds
}

// Classify counts the nonzero mask pixels inside every slot and maps each
// count to a State.
//
// Slot rectangles are interpreted in mask coordinates. The first slot that
// does not fit inside the mask aborts classification with a
// *slots.OutOfBoundsError; no partial result is returned.
func (c *Classifier) Classify(mask *image.Gray, cfg *slots.Config) (*FrameResult, error) {
	if mask == nil {
		return nil, fmt.Errorf("%w: mask is nil", imaging.ErrInvalidFrame)
	}
	if cfg == nil {
		return nil, fmt.Errorf("%w: slot layout is nil", slots.ErrInvalidConfig)
	}

	bounds := mask.Bounds()
	result := &FrameResult{
		Slots:      make([]SlotClassification, cfg.Len()),
		TotalCount: cfg.Len(),
	}

	for i := 0; i < cfg.Len(); i++ {
		if err := cfg.Check(i, bounds); err != nil {
			return nil, err
		}

		count, err := imaging.CountNonZero(mask, cfg.Rect(i))
		if err != nil {
			return nil, fmt.Errorf("failed to count slot %d: %w", i, err)
		}

		state := ClassifyCount(count, cfg.IsReserved(i), c.thresholds)
		if state == Free {
			result.FreeCount++
		}
		result.Slots[i] = SlotClassification{Index: i, State: state, Count: count}
	}

	return result, nil
}
