package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"math"
	"testing"
)

func newTestPreprocessor(t *testing.T) *NativePreprocessor {
	t.Helper()
	p, err := NewNativePreprocessor(DefaultParams())
	if err != nil {
		t.Fatalf("NewNativePreprocessor failed: %v", err)
	}
	return p
}

func TestDefaultParams(t *testing.T) {
	p := DefaultParams()
	if err := p.Validate(); err != nil {
		t.Fatalf("default params should be valid: %v", err)
	}

	want := Params{BlurKernel: 3, BlurSigma: 1, BlockSize: 25, Offset: 16, MedianKernel: 5, DilateKernel: 3, DilateIterations: 1}
	if p != want {
		t.Errorf("DefaultParams: got %+v, want %+v", p, want)
	}
}

func TestParams_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Params)
	}{
		{"even blur kernel", func(p *Params) { p.BlurKernel = 4 }},
		{"blur kernel too small", func(p *Params) { p.BlurKernel = 1 }},
		{"even block size", func(p *Params) { p.BlockSize = 24 }},
		{"even median kernel", func(p *Params) { p.MedianKernel = 6 }},
		{"zero dilate kernel", func(p *Params) { p.DilateKernel = 0 }},
		{"zero iterations", func(p *Params) { p.DilateIterations = 0 }},
		{"NaN offset", func(p *Params) { p.Offset = math.NaN() }},
		{"infinite offset", func(p *Params) { p.Offset = math.Inf(1) }},
		{"NaN blur sigma", func(p *Params) { p.BlurSigma = math.NaN() }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.modify(&p)
			err := p.Validate()
			if !errors.Is(err, ErrInvalidParams) {
				t.Errorf("Validate: got %v, want ErrInvalidParams", err)
			}
			if _, err := NewNativePreprocessor(p); !errors.Is(err, ErrInvalidParams) {
				t.Errorf("NewNativePreprocessor: got %v, want ErrInvalidParams", err)
			}
		})
	}
}

func TestNewPreprocessor(t *testing.T) {
	for _, name := range []string{"", BackendNative} {
		p, err := NewPreprocessor(name, DefaultParams())
		if err != nil {
			t.Fatalf("NewPreprocessor(%q) failed: %v", name, err)
		}
		if p.Name() != BackendNative {
			t.Errorf("NewPreprocessor(%q).Name(): got %s, want %s", name, p.Name(), BackendNative)
		}
	}

	if _, err := NewPreprocessor("imagemagick", DefaultParams()); !errors.Is(err, ErrBackendUnavailable) {
		t.Errorf("unknown backend: got %v, want ErrBackendUnavailable", err)
	}
}

func TestPreprocess_DimensionsAndBinary(t *testing.T) {
	p := newTestPreprocessor(t)

	sizes := []struct{ w, h int }{
		{60, 40},
		{1, 1},
		{7, 93},
		{107, 48},
	}
	for _, s := range sizes {
		mask, err := p.Preprocess(createPatternImage(s.w, s.h))
		if err != nil {
			t.Fatalf("Preprocess %dx%d failed: %v", s.w, s.h, err)
		}
		if got := mask.Bounds(); got != image.Rect(0, 0, s.w, s.h) {
			t.Errorf("mask bounds: got %v, want %v", got, image.Rect(0, 0, s.w, s.h))
		}
		if !IsBinary(mask) {
			t.Errorf("mask %dx%d contains values other than 0 and 255", s.w, s.h)
		}
	}
}

func TestPreprocess_UniformFrameIsEmpty(t *testing.T) {
	p := newTestPreprocessor(t)

	colors := []color.Color{
		color.White,
		color.Black,
		color.RGBA{128, 128, 128, 255},
		color.RGBA{30, 160, 90, 255},
	}
	for _, c := range colors {
		img := createInMemoryImage(50, 50, c)
		mask, err := p.Preprocess(img)
		if err != nil {
			t.Fatalf("Preprocess failed: %v", err)
		}
		n, err := CountNonZero(mask, mask.Bounds())
		if err != nil {
			t.Fatalf("CountNonZero failed: %v", err)
		}
		if n != 0 {
			t.Errorf("uniform %v frame: got %d mask pixels, want 0", c, n)
		}
	}
}

func TestPreprocess_DarkBarIsMarked(t *testing.T) {
	p := newTestPreprocessor(t)

	img := createBarImage(60, 60, 27, 33)
	mask, err := p.Preprocess(img)
	if err != nil {
		t.Fatalf("Preprocess failed: %v", err)
	}

	onBar, err := CountNonZero(mask, image.Rect(28, 0, 32, 60))
	if err != nil {
		t.Fatalf("CountNonZero failed: %v", err)
	}
	if onBar == 0 {
		t.Error("dark bar should produce mask pixels")
	}

	farLeft, _ := CountNonZero(mask, image.Rect(0, 0, 10, 60))
	farRight, _ := CountNonZero(mask, image.Rect(50, 0, 60, 60))
	if farLeft != 0 || farRight != 0 {
		t.Errorf("background far from bar should be empty, got left=%d right=%d", farLeft, farRight)
	}
}

func TestPreprocess_DoesNotModifyInput(t *testing.T) {
	p := newTestPreprocessor(t)

	img := createBarImage(40, 30, 10, 20)
	before := bytes.Clone(img.Pix)

	if _, err := p.Preprocess(img); err != nil {
		t.Fatalf("Preprocess failed: %v", err)
	}
	if !bytes.Equal(before, img.Pix) {
		t.Error("Preprocess modified the input frame")
	}
}

func TestPreprocess_Deterministic(t *testing.T) {
	p := newTestPreprocessor(t)
	img := createPatternImage(64, 48)

	a, err := p.Preprocess(img)
	if err != nil {
		t.Fatalf("Preprocess failed: %v", err)
	}
	b, err := p.Preprocess(img)
	if err != nil {
		t.Fatalf("Preprocess failed: %v", err)
	}
	if !bytes.Equal(a.Pix, b.Pix) {
		t.Error("two runs on the same frame produced different masks")
	}
}

func TestPreprocess_NonZeroOrigin(t *testing.T) {
	p := newTestPreprocessor(t)

	img := image.NewRGBA(image.Rect(10, 20, 50, 50))
	for y := 20; y < 50; y++ {
		for x := 10; x < 50; x++ {
			img.Set(x, y, color.White)
		}
	}

	mask, err := p.Preprocess(img)
	if err != nil {
		t.Fatalf("Preprocess failed: %v", err)
	}
	if got := mask.Bounds(); got != image.Rect(0, 0, 40, 30) {
		t.Errorf("mask bounds: got %v, want (0,0)-(40,30)", got)
	}
}

func TestPreprocess_InvalidFrame(t *testing.T) {
	p := newTestPreprocessor(t)

	tests := []struct {
		name string
		img  image.Image
	}{
		{"nil", nil},
		{"zero size", image.NewRGBA(image.Rect(0, 0, 0, 0))},
		{"zero height", image.NewRGBA(image.Rect(0, 0, 10, 0))},
		{"single channel", image.NewGray(image.Rect(0, 0, 10, 10))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := p.Preprocess(tt.img); !errors.Is(err, ErrInvalidFrame) {
				t.Errorf("got %v, want ErrInvalidFrame", err)
			}
		})
	}
}

func TestStages(t *testing.T) {
	p := newTestPreprocessor(t)
	img := createBarImage(60, 40, 20, 28)

	stages, err := p.Stages(img)
	if err != nil {
		t.Fatalf("Stages failed: %v", err)
	}

	named := stages.Named()
	wantNames := []string{"gray", "blurred", "threshold", "median", "dilated"}
	if len(named) != len(wantNames) {
		t.Fatalf("Named: got %d stages, want %d", len(named), len(wantNames))
	}
	for i, st := range named {
		if st.Name != wantNames[i] {
			t.Errorf("stage %d: got %s, want %s", i, st.Name, wantNames[i])
		}
		if st.Image.Bounds() != img.Bounds() {
			t.Errorf("stage %s bounds: got %v, want %v", st.Name, st.Image.Bounds(), img.Bounds())
		}
	}

	for _, m := range []*image.Gray{stages.Threshold, stages.Median, stages.Dilated} {
		if !IsBinary(m) {
			t.Error("binary stage contains intermediate values")
		}
	}

	// Black bar pixels stay black after the grayscale stage.
	if v := stages.Gray.GrayAt(24, 10).Y; v != 0 {
		t.Errorf("gray value on bar: got %d, want 0", v)
	}
	if v := stages.Gray.GrayAt(5, 10).Y; v != 255 {
		t.Errorf("gray value off bar: got %d, want 255", v)
	}

	medianCount, _ := CountNonZero(stages.Median, stages.Median.Bounds())
	dilatedCount, _ := CountNonZero(stages.Dilated, stages.Dilated.Bounds())
	if dilatedCount < medianCount {
		t.Errorf("dilation shrank the mask: %d < %d", dilatedCount, medianCount)
	}

	mask, err := p.Preprocess(img)
	if err != nil {
		t.Fatalf("Preprocess failed: %v", err)
	}
	if !bytes.Equal(mask.Pix, stages.Dilated.Pix) {
		t.Error("Preprocess and Stages disagree on the final mask")
	}
}

func TestStages_MoreIterationsGrowMask(t *testing.T) {
	img := createBarImage(60, 40, 20, 28)

	one := DefaultParams()
	three := DefaultParams()
	three.DilateIterations = 3

	p1, _ := NewNativePreprocessor(one)
	p3, _ := NewNativePreprocessor(three)

	m1, err := p1.Preprocess(img)
	if err != nil {
		t.Fatalf("Preprocess failed: %v", err)
	}
	m3, err := p3.Preprocess(img)
	if err != nil {
		t.Fatalf("Preprocess failed: %v", err)
	}

	n1, _ := CountNonZero(m1, m1.Bounds())
	n3, _ := CountNonZero(m3, m3.Bounds())
	if n1 == 0 {
		t.Fatal("expected a non-empty mask for the bar image")
	}
	if n3 <= n1 {
		t.Errorf("3 iterations: got %d pixels, want more than %d", n3, n1)
	}
}

func TestGrayscaleWeights(t *testing.T) {
	p := newTestPreprocessor(t)

	tests := []struct {
		c    color.RGBA
		want uint8
	}{
		{color.RGBA{255, 0, 0, 255}, 76},
		{color.RGBA{0, 255, 0, 255}, 150},
		{color.RGBA{0, 0, 255, 255}, 29},
		{color.RGBA{255, 255, 255, 255}, 255},
	}
	for _, tt := range tests {
		stages, err := p.Stages(createInMemoryImage(4, 4, tt.c))
		if err != nil {
			t.Fatalf("Stages failed: %v", err)
		}
		if got := stages.Gray.GrayAt(1, 1).Y; got != tt.want {
			t.Errorf("gray of %v: got %d, want %d", tt.c, got, tt.want)
		}
	}
}
