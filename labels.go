package vidtrack

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Labels are the class names a detection model was trained on, indexed by
// class number
type Labels []string

// LoadLabels reads the class names from the given text file, one label per
// line.  Blank lines are ignored.
func LoadLabels(file string) (Labels, error) {

	f, err := os.Open(file)

	if err != nil {
		return nil, fmt.Errorf("error opening labels file: %w", err)
	}

	defer f.Close()

	scanner := bufio.NewScanner(f)

	var labels Labels

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" {
			continue
		}

		labels = append(labels, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading labels file: %w", err)
	}

	return labels, nil
}

// Name returns the label for the class, or the class number as text when
// the class is outside the known labels
func (l Labels) Name(class int) string {

	if class >= 0 && class < len(l) {
		return l[class]
	}

	return strconv.Itoa(class)
}

// Lookup returns the class number of the named label
func (l Labels) Lookup(name string) (int, bool) {

	for i, label := range l {
		if label == name {
			return i, true
		}
	}

	return 0, false
}
