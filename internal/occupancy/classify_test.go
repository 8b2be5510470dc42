package occupancy

import (
	"encoding/json"
	"errors"
	"image"
	"testing"

	"github.com/ironsheep/parkwatch/internal/imaging"
	"github.com/ironsheep/parkwatch/internal/slots"
)

// fillCount sets exactly n pixels of r in mask, row by row.
func fillCount(t *testing.T, mask *image.Gray, r image.Rectangle, n int) {
	t.Helper()
	if n > r.Dx()*r.Dy() {
		t.Fatalf("cannot set %d pixels in %v", n, r)
	}
	for y := r.Min.Y; y < r.Max.Y && n > 0; y++ {
		for x := r.Min.X; x < r.Max.X && n > 0; x++ {
			mask.Pix[mask.PixOffset(x, y)] = 255
			n--
		}
	}
}

// rowLayout places count slots of 107x48 side by side with a 1 pixel gap and
// returns the layout and a mask wide enough to hold them.
func rowLayout(t *testing.T, count int, reserved []int) (*slots.Config, *image.Gray) {
	t.Helper()
	pos := make([]image.Point, count)
	for i := range pos {
		pos[i] = image.Pt(i*108, 0)
	}
	cfg, err := slots.New(pos, 107, 48, reserved)
	if err != nil {
		t.Fatalf("slots.New failed: %v", err)
	}
	return cfg, image.NewGray(image.Rect(0, 0, count*108, 48))
}

func newTestClassifier(t *testing.T) *Classifier {
	t.Helper()
	c, err := NewClassifier(DefaultThresholds())
	if err != nil {
		t.Fatalf("NewClassifier failed: %v", err)
	}
	return c
}

func TestThresholds_Validate(t *testing.T) {
	tests := []struct {
		name    string
		th      Thresholds
		wantErr bool
	}{
		{"defaults", DefaultThresholds(), false},
		{"equal bounds", Thresholds{FreeBelow: 1000, OccupiedFrom: 1000}, false},
		{"zero free", Thresholds{FreeBelow: 0, OccupiedFrom: 1500}, true},
		{"negative free", Thresholds{FreeBelow: -5, OccupiedFrom: 1500}, true},
		{"inverted", Thresholds{FreeBelow: 1500, OccupiedFrom: 900}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.th.Validate()
			if tt.wantErr && !errors.Is(err, ErrInvalidThresholds) {
				t.Errorf("got %v, want ErrInvalidThresholds", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			_, cerr := NewClassifier(tt.th)
			if (cerr != nil) != tt.wantErr {
				t.Errorf("NewClassifier error = %v, wantErr %v", cerr, tt.wantErr)
			}
		})
	}
}

func TestClassifyCount_Boundaries(t *testing.T) {
	th := DefaultThresholds()

	tests := []struct {
		count    int
		reserved bool
		want     State
	}{
		{0, false, Free},
		{899, false, Free},
		{900, false, Misaligned},
		{1499, false, Misaligned},
		{1500, false, Occupied},
		{5136, false, Occupied},
		{0, true, Reserved},
		{5136, true, Reserved},
	}
	for _, tt := range tests {
		if got := ClassifyCount(tt.count, tt.reserved, th); got != tt.want {
			t.Errorf("ClassifyCount(%d, reserved=%v): got %s, want %s", tt.count, tt.reserved, got, tt.want)
		}
	}
}

func TestClassifyCount_EqualThresholdsSkipMisaligned(t *testing.T) {
	th := Thresholds{FreeBelow: 1000, OccupiedFrom: 1000}
	if got := th.State(999); got != Free {
		t.Errorf("999: got %s, want free", got)
	}
	if got := th.State(1000); got != Occupied {
		t.Errorf("1000: got %s, want occupied", got)
	}
}

func TestClassifyCount_Monotonic(t *testing.T) {
	th := DefaultThresholds()
	prev := th.State(0)
	for count := 1; count <= 107*48; count++ {
		s := th.State(count)
		if s < prev {
			t.Fatalf("state went from %s back to %s at count %d", prev, s, count)
		}
		prev = s
	}
}

func TestClassify_Example(t *testing.T) {
	cfg, mask := rowLayout(t, 3, []int{1})
	for i, n := range []int{500, 2000, 1200} {
		fillCount(t, mask, cfg.Rect(i), n)
	}

	result, err := newTestClassifier(t).Classify(mask, cfg)
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}

	want := []SlotClassification{
		{Index: 0, State: Free, Count: 500},
		{Index: 1, State: Reserved, Count: 2000},
		{Index: 2, State: Misaligned, Count: 1200},
	}
	if len(result.Slots) != len(want) {
		t.Fatalf("got %d slots, want %d", len(result.Slots), len(want))
	}
	for i := range want {
		if result.Slots[i] != want[i] {
			t.Errorf("slot %d: got %+v, want %+v", i, result.Slots[i], want[i])
		}
	}
	if result.FreeCount != 1 || result.TotalCount != 3 {
		t.Errorf("counts: got free=%d total=%d, want free=1 total=3", result.FreeCount, result.TotalCount)
	}
}

func TestClassify_BoundaryCounts(t *testing.T) {
	counts := []int{899, 900, 1499, 1500}
	wantStates := []State{Free, Misaligned, Misaligned, Occupied}

	cfg, mask := rowLayout(t, len(counts), nil)
	for i, n := range counts {
		fillCount(t, mask, cfg.Rect(i), n)
	}

	result, err := newTestClassifier(t).Classify(mask, cfg)
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	for i, want := range wantStates {
		if result.Slots[i].Count != counts[i] {
			t.Errorf("slot %d count: got %d, want %d", i, result.Slots[i].Count, counts[i])
		}
		if result.Slots[i].State != want {
			t.Errorf("slot %d (count %d): got %s, want %s", i, counts[i], result.Slots[i].State, want)
		}
	}
	if result.FreeCount != 1 {
		t.Errorf("FreeCount: got %d, want 1", result.FreeCount)
	}
}

func TestClassify_EmptyMask(t *testing.T) {
	reserved := []int{1, 3, 7, 9}
	cfg, mask := rowLayout(t, 10, reserved)

	result, err := newTestClassifier(t).Classify(mask, cfg)
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}

	for _, s := range result.Slots {
		want := Free
		if cfg.IsReserved(s.Index) {
			want = Reserved
		}
		if s.State != want {
			t.Errorf("slot %d: got %s, want %s", s.Index, s.State, want)
		}
	}
	if result.FreeCount != 6 || result.TotalCount != 10 {
		t.Errorf("counts: got free=%d total=%d, want 6/10", result.FreeCount, result.TotalCount)
	}
}

func TestClassify_ReservedIgnoresContent(t *testing.T) {
	cfg, mask := rowLayout(t, 2, []int{0, 1})
	fillCount(t, mask, cfg.Rect(0), 107*48)

	result, err := newTestClassifier(t).Classify(mask, cfg)
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	for _, s := range result.Slots {
		if s.State != Reserved {
			t.Errorf("slot %d: got %s, want reserved", s.Index, s.State)
		}
	}
	if result.FreeCount != 0 {
		t.Errorf("FreeCount: got %d, want 0", result.FreeCount)
	}
	if result.Slots[0].Count != 107*48 {
		t.Errorf("reserved slot count should still be reported, got %d", result.Slots[0].Count)
	}
}

func TestClassify_TallyMatchesTotal(t *testing.T) {
	counts := []int{0, 3000, 950, 100, 1600, 1499, 0, 2500}
	cfg, mask := rowLayout(t, len(counts), []int{2, 5})
	for i, n := range counts {
		fillCount(t, mask, cfg.Rect(i), n)
	}

	result, err := newTestClassifier(t).Classify(mask, cfg)
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}

	tally := result.Tally()
	if tally.Total() != result.TotalCount {
		t.Errorf("tally total %d != TotalCount %d", tally.Total(), result.TotalCount)
	}
	if tally.Free != result.FreeCount {
		t.Errorf("tally free %d != FreeCount %d", tally.Free, result.FreeCount)
	}
	want := Tally{Reserved: 2, Free: 3, Misaligned: 0, Occupied: 3}
	if tally != want {
		t.Errorf("tally: got %+v, want %+v", tally, want)
	}
}

func TestClassify_OutOfBounds(t *testing.T) {
	pos := []image.Point{{0, 0}, {100, 10}}
	cfg, err := slots.New(pos, 107, 48, nil)
	if err != nil {
		t.Fatalf("slots.New failed: %v", err)
	}

	tests := []struct {
		name string
		mask *image.Gray
	}{
		{"too narrow", image.NewGray(image.Rect(0, 0, 206, 100))},
		{"too short", image.NewGray(image.Rect(0, 0, 300, 57))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := newTestClassifier(t).Classify(tt.mask, cfg)
			if result != nil {
				t.Error("no partial result should be returned")
			}
			if !errors.Is(err, slots.ErrOutOfBounds) {
				t.Fatalf("got %v, want ErrOutOfBounds", err)
			}
			var oob *slots.OutOfBoundsError
			if !errors.As(err, &oob) || oob.Index != 1 {
				t.Errorf("error should name slot 1, got %v", err)
			}
		})
	}

	// Exactly fitting is fine.
	if _, err := newTestClassifier(t).Classify(image.NewGray(image.Rect(0, 0, 207, 58)), cfg); err != nil {
		t.Errorf("exact fit should succeed: %v", err)
	}
}

func TestClassify_NilMask(t *testing.T) {
	cfg, _ := rowLayout(t, 1, nil)
	if _, err := newTestClassifier(t).Classify(nil, cfg); !errors.Is(err, imaging.ErrInvalidFrame) {
		t.Errorf("got %v, want ErrInvalidFrame", err)
	}
}

func TestClassify_NilLayout(t *testing.T) {
	mask := image.NewGray(image.Rect(0, 0, 10, 10))
	if _, err := newTestClassifier(t).Classify(mask, nil); !errors.Is(err, slots.ErrInvalidConfig) {
		t.Errorf("got %v, want slots.ErrInvalidConfig", err)
	}
}

func TestClassify_NoSlots(t *testing.T) {
	cfg, err := slots.New(nil, 107, 48, nil)
	if err != nil {
		t.Fatalf("slots.New failed: %v", err)
	}
	result, err := newTestClassifier(t).Classify(image.NewGray(image.Rect(0, 0, 10, 10)), cfg)
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if len(result.Slots) != 0 || result.FreeCount != 0 || result.TotalCount != 0 {
		t.Errorf("unexpected result for empty layout: %+v", result)
	}
}

func TestFrameResult_JSON(t *testing.T) {
	r := FrameResult{
		Slots: []SlotClassification{
			{Index: 0, State: Free, Count: 12},
			{Index: 1, State: Reserved, Count: 0},
		},
		FreeCount:  1,
		TotalCount: 2,
	}

	b, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	want := `{"slots":[{"index":0,"state":"free","count":12},{"index":1,"state":"reserved","count":0}],"free_count":1,"total_count":2}`
	if string(b) != want {
		t.Errorf("JSON:\n got %s\nwant %s", b, want)
	}
}
