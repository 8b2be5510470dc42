package slots

import (
	"encoding/json"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// positionsFile is the TOML form of a position list:
//
//	positions = [[50, 120], [158, 120]]
type positionsFile struct {
	Positions [][]int `toml:"positions"`
}

// LoadPositions reads the slot position list written by the layout editor.
//
// Parameters:
//   - path: the position file. The encoding is chosen by extension:
//   - .json: a bare array of [x, y] pairs
//   - .toml: a "positions" key holding an array of [x, y] pairs
//   - .pkl, .pickle or none (CarParkPos): a pickled list of (x, y) tuples
//
// Returns:
//   - []image.Point: the slot top-left corners in file order
//   - error: non-nil if the file cannot be read or parsed
//
// # Errors
//
//   - Returns an error wrapping ErrInvalidConfig for an unknown extension
//   - Returns an error wrapping ErrInvalidConfig if an entry is not a pair of
//     integers
func LoadPositions(path string) ([]image.Point, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read slot positions: %w", err)
	}

	var pairs [][]int
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(b, &pairs); err != nil {
			return nil, fmt.Errorf("failed to parse slot positions %s: %w", path, err)
		}
	case ".toml":
		var f positionsFile
		if err := toml.Unmarshal(b, &f); err != nil {
			return nil, fmt.Errorf("failed to parse slot positions %s: %w", path, err)
		}
		pairs = f.Positions
	case ".pkl", ".pickle", "":
		pairs, err = decodePickle(b)
		if err != nil {
			return nil, fmt.Errorf("failed to parse slot positions %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported slot file extension %q (want .json, .toml or .pkl)", ErrInvalidConfig, filepath.Ext(path))
	}

	points := make([]image.Point, len(pairs))
	for i, p := range pairs {
		if len(p) != 2 {
			return nil, fmt.Errorf("%w: position %d has %d values, want 2", ErrInvalidConfig, i, len(p))
		}
		points[i] = image.Pt(p[0], p[1])
	}
	return points, nil
}

// SavePositions writes positions in the encoding selected by the extension
// of path. Only .json and .toml can be written; pickled layouts are read-only.
func SavePositions(path string, positions []image.Point) error {
	pairs := make([][]int, len(positions))
	for i, p := range positions {
		pairs[i] = []int{p.X, p.Y}
	}

	var (
		b   []byte
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		b, err = json.Marshal(pairs)
	case ".toml":
		b, err = toml.Marshal(positionsFile{Positions: pairs})
	default:
		return fmt.Errorf("%w: unsupported slot file extension %q (want .json or .toml)", ErrInvalidConfig, filepath.Ext(path))
	}
	if err != nil {
		return fmt.Errorf("failed to encode slot positions: %w", err)
	}

	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("failed to write slot positions: %w", err)
	}
	return nil
}

// Load reads positions from path and builds a Config with the given slot
// size and reserved indices.
func Load(path string, width, height int, reserved []int) (*Config, error) {
	positions, err := LoadPositions(path)
	if err != nil {
		return nil, err
	}
	return New(positions, width, height, reserved)
}
