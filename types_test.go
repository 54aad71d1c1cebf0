package vidtrack

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCornersToCenter(t *testing.T) {

	box := CornersToCenter(10, 20, 50, 100)

	if box.CX != 30 || box.CY != 60 || box.W != 40 || box.H != 80 {
		t.Errorf("unexpected XYWH %+v", box)
	}

	x1, y1, x2, y2 := box.Corners()

	if x1 != 10 || y1 != 20 || x2 != 50 || y2 != 100 {
		t.Errorf("corners did not round trip, got %v %v %v %v", x1, y1, x2, y2)
	}
}

func TestTracksEqualAndClone(t *testing.T) {

	a := Tracks{
		{Box: XYXY{1, 2, 3, 4}, ID: 1},
		{Box: XYXY{5, 6, 7, 8}, ID: 2},
	}

	b := a.Clone()

	if !a.Equal(b) {
		t.Fatalf("expected clone to be equal")
	}

	b[0].ID = 9

	if a.Equal(b) {
		t.Errorf("expected modified clone to differ")
	}

	if a[0].ID != 1 {
		t.Errorf("clone shares memory with original")
	}

	if !Tracks(nil).Equal(Tracks{}) {
		t.Errorf("expected nil and empty tracks to be equal")
	}
}

func TestTrackString(t *testing.T) {

	tr := Track{Box: XYXY{10, 20, 30, 40}, ID: 7}

	if got := tr.String(); got != "10\t20\t30\t40\t7" {
		t.Errorf("unexpected record %q", got)
	}
}

func TestLoadLabels(t *testing.T) {

	file := filepath.Join(t.TempDir(), "labels.txt")

	err := os.WriteFile(file, []byte("person\nbicycle\n\n car \n"), 0o644)

	if err != nil {
		t.Fatal(err)
	}

	labels, err := LoadLabels(file)

	if err != nil {
		t.Fatalf("error loading labels: %v", err)
	}

	if len(labels) != 3 {
		t.Fatalf("expected 3 labels, got %d", len(labels))
	}

	if labels.Name(2) != "car" || labels.Name(5) != "5" {
		t.Errorf("unexpected label names %q %q", labels.Name(2), labels.Name(5))
	}

	if id, ok := labels.Lookup("bicycle"); !ok || id != 1 {
		t.Errorf("expected bicycle at 1, got %d %v", id, ok)
	}

	if _, err := LoadLabels(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Errorf("expected error for missing file")
	}
}
