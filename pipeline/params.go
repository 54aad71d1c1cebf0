package pipeline

import (
	"fmt"
	"strconv"

	"github.com/swdee/vidtrack"
)

// Params configures one tracking run
type Params struct {
	// InputPath is the video file to read, ignored when Camera is set
	InputPath string
	// Camera is a camera device index, -1 reads InputPath instead
	Camera int
	// SavePath is the directory receiving results.<ext> and stats.json,
	// empty disables the video output
	SavePath string
	// FrameInterval runs detection on every FrameInterval'th frame
	FrameInterval int
	// FourCC is the codec of the output video
	FourCC string
	// Device selects the inference device, "" or cpu, cuda or CUDA indexes
	Device string
	// SaveTxt is the directory receiving per frame text records, empty
	// disables them
	SaveTxt string
	// Display shows a preview window of DisplayWidth x DisplayHeight
	Display       bool
	DisplayWidth  int
	DisplayHeight int
	// Weights is the detection model file
	Weights string
	// ImgSize is the detector input size
	ImgSize int
	// ConfThres and IoUThres are the detector NMS thresholds
	ConfThres float32
	IoUThres  float32
	// Classes is the class allow-list, empty allows all classes
	Classes []int
	// AgnosticNMS suppresses overlapping boxes across classes
	AgnosticNMS bool
	// ConfigDeepSort is the tracker YAML config file
	ConfigDeepSort string
	// Labels is an optional class names file used in log output
	Labels string
}

// DefaultParams returns the parameters used for anything the caller does
// not set
func DefaultParams() Params {
	return Params{
		InputPath:      "Test/TestVideo.mp4",
		Camera:         -1,
		SavePath:       "output/",
		FrameInterval:  1,
		FourCC:         "mp4v",
		Device:         "",
		SaveTxt:        "output/predict/",
		Display:        false,
		DisplayWidth:   800,
		DisplayHeight:  600,
		Weights:        "yolov5/weights/yolov5s.onnx",
		ImgSize:        640,
		ConfThres:      0.5,
		IoUThres:       0.5,
		Classes:        []int{0},
		AgnosticNMS:    false,
		ConfigDeepSort: "./configs/deep_sort.yaml",
	}
}

// Target returns the source the run reads, the camera index when one is
// selected or the input path otherwise
func (p Params) Target() string {

	if p.Camera >= 0 {
		return strconv.Itoa(p.Camera)
	}

	return p.InputPath
}

// Validate checks the parameters, errors wrap ErrInvalidParams
func (p Params) Validate() error {

	invalid := func(format string, args ...interface{}) error {
		return fmt.Errorf("%w: %s", vidtrack.ErrInvalidParams, fmt.Sprintf(format, args...))
	}

	switch {
	case p.Camera < 0 && p.InputPath == "":
		return invalid("input_path is required when no camera is selected")
	case p.FrameInterval < 1:
		return invalid("frame_interval must be at least 1, got %d", p.FrameInterval)
	case p.SavePath != "" && len(p.FourCC) != 4:
		return invalid("fourcc must be 4 characters, got %q", p.FourCC)
	case p.Display && (p.DisplayWidth < 1 || p.DisplayHeight < 1):
		return invalid("display size must be positive, got %dx%d", p.DisplayWidth, p.DisplayHeight)
	case p.ImgSize < 1:
		return invalid("img_size must be positive, got %d", p.ImgSize)
	case p.ConfThres < 0 || p.ConfThres > 1:
		return invalid("conf-thres must be within [0,1], got %v", p.ConfThres)
	case p.IoUThres < 0 || p.IoUThres > 1:
		return invalid("iou-thres must be within [0,1], got %v", p.IoUThres)
	}

	for _, c := range p.Classes {
		if c < 0 {
			return invalid("classes must not be negative, got %d", c)
		}
	}

	return nil
}
