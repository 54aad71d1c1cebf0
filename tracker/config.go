package tracker

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the DeepSort tuning parameters
type Config struct {
	// ReIDCheckpoint is the re-identification model file, only ONNX models
	// are loaded, anything else falls back to the patch extractor
	ReIDCheckpoint string `yaml:"REID_CKPT"`
	// MaxDist is the cosine distance gate of the appearance matching cascade
	MaxDist float64 `yaml:"MAX_DIST"`
	// MinConfidence drops detections scoring below it
	MinConfidence float32 `yaml:"MIN_CONFIDENCE"`
	// NMSMaxOverlap is the IoU above which overlapping detections are
	// suppressed, 1.0 disables suppression
	NMSMaxOverlap float32 `yaml:"NMS_MAX_OVERLAP"`
	// MaxIoUDistance is the 1-IoU gate of the second matching stage
	MaxIoUDistance float64 `yaml:"MAX_IOU_DISTANCE"`
	// MaxAge is the number of consecutive misses before a confirmed track
	// is deleted
	MaxAge int `yaml:"MAX_AGE"`
	// NInit is the number of hits needed to confirm a track
	NInit int `yaml:"N_INIT"`
	// NNBudget caps the appearance features kept per track, 0 is unbounded
	NNBudget int `yaml:"NN_BUDGET"`
}

// DefaultConfig returns the default DeepSort parameters
func DefaultConfig() Config {
	return Config{
		ReIDCheckpoint: "deep_sort/deep/checkpoint/ckpt.t7",
		MaxDist:        0.2,
		MinConfidence:  0.3,
		NMSMaxOverlap:  0.5,
		MaxIoUDistance: 0.7,
		MaxAge:         70,
		NInit:          3,
		NNBudget:       100,
	}
}

// LoadConfig reads the DEEPSORT section of a YAML config file.  Keys missing
// from the file keep their default value.
func LoadConfig(path string) (Config, error) {

	data, err := os.ReadFile(path)

	if err != nil {
		return Config{}, fmt.Errorf("error reading deepsort config: %w", err)
	}

	return ParseConfig(data)
}

// ParseConfig decodes a YAML document holding a DEEPSORT section
func ParseConfig(data []byte) (Config, error) {

	var doc struct {
		DeepSort yaml.Node `yaml:"DEEPSORT"`
	}

	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Config{}, fmt.Errorf("error parsing deepsort config: %w", err)
	}

	if doc.DeepSort.Kind == 0 {
		return Config{}, errors.New("deepsort config has no DEEPSORT section")
	}

	cfg := DefaultConfig()

	if err := doc.DeepSort.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("error decoding DEEPSORT section: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks the parameters are within their usable range
func (c Config) Validate() error {

	switch {
	case c.MaxDist <= 0:
		return fmt.Errorf("MAX_DIST must be positive, got %v", c.MaxDist)
	case c.MinConfidence < 0 || c.MinConfidence > 1:
		return fmt.Errorf("MIN_CONFIDENCE must be within [0,1], got %v", c.MinConfidence)
	case c.NMSMaxOverlap <= 0 || c.NMSMaxOverlap > 1:
		return fmt.Errorf("NMS_MAX_OVERLAP must be within (0,1], got %v", c.NMSMaxOverlap)
	case c.MaxIoUDistance <= 0 || c.MaxIoUDistance > 1:
		return fmt.Errorf("MAX_IOU_DISTANCE must be within (0,1], got %v", c.MaxIoUDistance)
	case c.MaxAge < 1:
		return fmt.Errorf("MAX_AGE must be at least 1, got %d", c.MaxAge)
	case c.NInit < 1:
		return fmt.Errorf("N_INIT must be at least 1, got %d", c.NInit)
	case c.NNBudget < 0:
		return fmt.Errorf("NN_BUDGET must not be negative, got %d", c.NNBudget)
	}

	return nil
}
