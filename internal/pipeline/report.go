package pipeline

import (
	"fmt"
	"image"
	"path/filepath"
	"strings"
	"time"

	"github.com/ironsheep/parkwatch/internal/imaging"
	"github.com/ironsheep/parkwatch/internal/occupancy"
)

// FrameReport is the result for one frame as handed to sinks.
type FrameReport struct {
	RunID     string                 `json:"run_id"`
	Seq       uint64                 `json:"seq"`
	Frame     string                 `json:"frame"`
	Timestamp time.Time              `json:"timestamp"`
	Result    *occupancy.FrameResult `json:"result"`

	// Image is the decoded input frame.
	Image image.Image `json:"-"`
	// Stages is set only when the runner keeps preprocessing stages.
	Stages *imaging.Stages `json:"-"`
}

// fileStem returns a file name prefix that sorts in frame order and keeps
// the source name recognizable, e.g. "000042-cam1".
func (r *FrameReport) fileStem() string {
	name := filepath.Base(r.Frame)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return fmt.Sprintf("%06d", r.Seq)
	}
	return fmt.Sprintf("%06d-%s", r.Seq, name)
}
