package sink

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/swdee/vidtrack"
)

// TextRecord writes the tracks of each frame to <dir>/<index>.txt, one tab
// separated "x1 y1 x2 y2 id" line per track
type TextRecord struct {
	dir string
}

// NewTextRecord creates the output directory
func NewTextRecord(dir string) (*TextRecord, error) {

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("error creating text record directory: %w", err)
	}

	return &TextRecord{dir: dir}, nil
}

// Name of the sink
func (t *TextRecord) Name() string {
	return "text"
}

// Path returns the record file of a frame
func (t *TextRecord) Path(index int) string {
	return filepath.Join(t.dir, fmt.Sprintf("%04d.txt", index))
}

// Write replaces the frame's record file
func (t *TextRecord) Write(f Frame) error {

	var b strings.Builder

	for _, tr := range f.Tracks {
		b.WriteString(tr.String())
		b.WriteByte('\n')
	}

	if err := os.WriteFile(t.Path(f.Index), []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("%w: text record: %v", vidtrack.ErrSinkWrite, err)
	}

	return nil
}

// Close is a no-op, each record is closed once written
func (t *TextRecord) Close() error {
	return nil
}
