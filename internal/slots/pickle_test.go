package slots

import (
	"errors"
	"image"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

// Pickles of [(50, 120), (300, 120)] as written by pickle.dump.
var (
	carParkPosV2 = "\x80\x02]q\x00(K2Kx\x86q\x01M,\x01Kx\x86q\x02e."
	carParkPosV4 = "\x80\x04\x95\x12\x00\x00\x00\x00\x00\x00\x00]\x94(K2Kx\x86\x94M,\x01Kx\x86\x94e."
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoadPositions_Pickle(t *testing.T) {
	dir := t.TempDir()
	want := []image.Point{{50, 120}, {300, 120}}

	tests := []struct {
		name string
		path string
	}{
		{"editor file without extension", writeFile(t, dir, "CarParkPos", carParkPosV2)},
		{"pkl extension", writeFile(t, dir, "slots.pkl", carParkPosV2)},
		{"pickle extension, protocol 4", writeFile(t, dir, "slots.pickle", carParkPosV4)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LoadPositions(tt.path)
			if err != nil {
				t.Fatalf("LoadPositions failed: %v", err)
			}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("got %v, want %v", got, want)
			}
		})
	}
}

func TestLoadPositions_PickleErrors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name       string
		body       string
		wantConfig bool
	}{
		{"not a pickle", "[[1, 2]]", false},
		{"three values", "\x80\x02]q\x00(K2KxK\x01\x87q\x01e.", true},
		{"not a list", "\x80\x02K\x05.", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadPositions(writeFile(t, dir, "CarParkPos", tt.body))
			if err == nil {
				t.Fatal("expected an error")
			}
			if tt.wantConfig && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("got %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestLoad_Pickle(t *testing.T) {
	path := writeFile(t, t.TempDir(), "CarParkPos", carParkPosV2)

	cfg, err := Load(path, 107, 48, []int{1})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Len() != 2 || !cfg.IsReserved(1) {
		t.Errorf("unexpected config: len=%d reserved=%v", cfg.Len(), cfg.Reserved())
	}
	if got := cfg.Rect(1); got != image.Rect(300, 120, 407, 168) {
		t.Errorf("Rect(1): got %v", got)
	}
}

func TestSavePositions_PickleIsReadOnly(t *testing.T) {
	err := SavePositions(filepath.Join(t.TempDir(), "CarParkPos"), []image.Point{{1, 2}})
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("got %v, want ErrInvalidConfig", err)
	}
}
