package imaging

import (
	"errors"
	"image"
	"image/color"
	"math"
	"testing"
)

func TestCountNonZero(t *testing.T) {
	mask := image.NewGray(image.Rect(0, 0, 20, 10))
	// 4x3 block of set pixels at (5,2)-(9,5)
	for y := 2; y < 5; y++ {
		for x := 5; x < 9; x++ {
			mask.Pix[mask.PixOffset(x, y)] = 255
		}
	}

	tests := []struct {
		name string
		r    image.Rectangle
		want int
	}{
		{"whole mask", mask.Bounds(), 12},
		{"exact block", image.Rect(5, 2, 9, 5), 12},
		{"left half of block", image.Rect(0, 0, 7, 10), 6},
		{"single pixel on", image.Rect(5, 2, 6, 3), 1},
		{"single pixel off", image.Rect(0, 0, 1, 1), 0},
		{"right edge", image.Rect(10, 0, 20, 10), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CountNonZero(mask, tt.r)
			if err != nil {
				t.Fatalf("CountNonZero failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCountNonZero_AnyNonZeroValue(t *testing.T) {
	mask := image.NewGray(image.Rect(0, 0, 3, 1))
	mask.Pix[0] = 1
	mask.Pix[1] = 128
	mask.Pix[2] = 0

	got, err := CountNonZero(mask, mask.Bounds())
	if err != nil {
		t.Fatalf("CountNonZero failed: %v", err)
	}
	if got != 2 {
		t.Errorf("got %d, want 2", got)
	}
}

func TestCountNonZero_OutOfBounds(t *testing.T) {
	mask := image.NewGray(image.Rect(0, 0, 100, 50))

	tests := []struct {
		name string
		r    image.Rectangle
	}{
		{"past right edge", image.Rect(90, 0, 101, 10)},
		{"past bottom edge", image.Rect(0, 45, 10, 51)},
		{"negative origin", image.Rect(-1, 0, 10, 10)},
		{"entirely outside", image.Rect(200, 200, 210, 210)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CountNonZero(mask, tt.r)
			if !errors.Is(err, ErrOutOfBounds) {
				t.Errorf("got %v, want ErrOutOfBounds", err)
			}
		})
	}
}

func TestCountNonZero_EmptyRegion(t *testing.T) {
	mask := image.NewGray(image.Rect(0, 0, 10, 10))

	if _, err := CountNonZero(mask, image.Rect(5, 5, 5, 8)); err == nil {
		t.Error("zero-width region should fail")
	}
}

func TestCountNonZero_NonZeroOrigin(t *testing.T) {
	mask := image.NewGray(image.Rect(10, 10, 20, 20))
	mask.Pix[mask.PixOffset(15, 15)] = 255

	got, err := CountNonZero(mask, image.Rect(12, 12, 18, 18))
	if err != nil {
		t.Fatalf("CountNonZero failed: %v", err)
	}
	if got != 1 {
		t.Errorf("got %d, want 1", got)
	}

	if _, err := CountNonZero(mask, image.Rect(0, 0, 5, 5)); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("region before origin: got %v, want ErrOutOfBounds", err)
	}
}

func TestIsBinary(t *testing.T) {
	mask := image.NewGray(image.Rect(0, 0, 4, 4))
	if !IsBinary(mask) {
		t.Error("all-zero mask should be binary")
	}

	mask.Pix[3] = 255
	if !IsBinary(mask) {
		t.Error("0/255 mask should be binary")
	}

	mask.Pix[7] = 12
	if IsBinary(mask) {
		t.Error("mask with 12 should not be binary")
	}
}

func TestGaussianKernel(t *testing.T) {
	tests := []struct {
		size  int
		sigma float64
	}{
		{3, 1},
		{5, 0},
		{25, 0},
		{7, 2.5},
	}
	for _, tt := range tests {
		k := gaussianKernel(tt.size, tt.sigma)
		if k.Width != tt.size || k.Height != 1 {
			t.Fatalf("kernel size: got %dx%d, want %dx1", k.Width, k.Height, tt.size)
		}

		var sum float64
		for _, v := range k.Matrix {
			sum += v
		}
		if math.Abs(sum-1) > 1e-9 {
			t.Errorf("size %d: kernel sums to %f, want 1", tt.size, sum)
		}

		half := tt.size / 2
		for i := 0; i < half; i++ {
			if math.Abs(k.Matrix[i]-k.Matrix[tt.size-1-i]) > 1e-12 {
				t.Errorf("size %d: kernel not symmetric at %d", tt.size, i)
			}
			if k.Matrix[i] >= k.Matrix[i+1] {
				t.Errorf("size %d: kernel not increasing toward center at %d", tt.size, i)
			}
		}
	}
}

func TestGaussianKernel_DerivedSigma(t *testing.T) {
	// A 25-wide block derives sigma = 0.3*(12-1) + 0.8 = 4.1.
	k := gaussianKernel(25, 0)
	sigma := 4.1
	want := math.Exp(-1 / (2 * sigma * sigma))
	got := k.Matrix[11] / k.Matrix[12]
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("neighbor ratio: got %f, want %f", got, want)
	}
}

func TestSeparableBlur_PreservesUniform(t *testing.T) {
	img := createInMemoryImage(9, 9, color.RGBA{77, 77, 77, 255})
	out := separableBlur(img, gaussianKernel(5, 0))

	for y := 0; y < 9; y++ {
		for x := 0; x < 9; x++ {
			if v := out.Pix[out.PixOffset(x, y)]; v != 77 {
				t.Fatalf("pixel (%d,%d): got %d, want 77", x, y, v)
			}
		}
	}
}
