// Package detector runs an object detection model over video frames and
// converts its output into detections in frame coordinates.
package detector

import (
	"errors"
	"fmt"
	"image"
	"os"
	"strconv"
	"strings"

	"github.com/swdee/vidtrack/postprocess"
	"gocv.io/x/gocv"
)

// Model is an object detection network.  Infer receives the letterboxed
// input image and returns candidates in the same coordinate space.
type Model interface {
	Infer(input gocv.Mat) ([]postprocess.Candidate, error)
	Close() error
}

// ParseDevice interprets a device selector.  An empty string or "cpu" runs
// on the CPU, "cuda" or a comma separated list of CUDA device indexes
// selects the accelerated backend.
func ParseDevice(device string) (accel bool, err error) {

	device = strings.ToLower(strings.TrimSpace(device))

	switch device {
	case "", "cpu":
		return false, nil
	case "cuda":
		return true, nil
	}

	for _, d := range strings.Split(device, ",") {
		if n, err := strconv.Atoi(strings.TrimSpace(d)); err != nil || n < 0 {
			return false, fmt.Errorf("invalid device %q, use cpu, cuda or device indexes such as 0,1", device)
		}
	}

	return true, nil
}

// Net is a YOLOv5 model exported to ONNX run with OpenCV's DNN module
type Net struct {
	net          gocv.Net
	boxThreshold float32
}

// NewNet loads the model weights.  On an accelerated device the network runs
// on the CUDA backend in half precision.
func NewNet(weights string, device string) (*Net, error) {

	accel, err := ParseDevice(device)

	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(weights); err != nil {
		return nil, fmt.Errorf("error opening model weights: %w", err)
	}

	net := gocv.ReadNet(weights, "")

	if net.Empty() {
		return nil, errors.New("error loading model weights: " + weights)
	}

	if accel {
		net.SetPreferableBackend(gocv.NetBackendCUDA)
		net.SetPreferableTarget(gocv.NetTargetCUDAFP16)
	} else {
		net.SetPreferableBackend(gocv.NetBackendDefault)
		net.SetPreferableTarget(gocv.NetTargetCPU)
	}

	return &Net{
		net:          net,
		boxThreshold: postprocess.YOLOv5COCOParams().BoxThreshold,
	}, nil
}

// Infer runs the network once on the letterboxed BGR input
func (n *Net) Infer(input gocv.Mat) ([]postprocess.Candidate, error) {

	blob := gocv.BlobFromImage(input, 1.0/255.0, image.Pt(input.Cols(), input.Rows()),
		gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	n.net.SetInput(blob, "")

	out := n.net.Forward("")
	defer out.Close()

	dims := out.Size()

	if len(dims) < 2 {
		return nil, fmt.Errorf("unexpected model output shape %v", dims)
	}

	boxSize := dims[len(dims)-1]

	data, err := out.DataPtrFloat32()

	if err != nil {
		return nil, fmt.Errorf("error reading model output: %w", err)
	}

	yolo := postprocess.NewYOLOv5(postprocess.YOLOv5Params{
		BoxThreshold:   n.boxThreshold,
		ObjectClassNum: boxSize - 5,
		ProbBoxSize:    boxSize,
	})

	return yolo.DetectObjects(data, input.Cols(), input.Rows())
}

// Close releases the network
func (n *Net) Close() error {
	return n.net.Close()
}
