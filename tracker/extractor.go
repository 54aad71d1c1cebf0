package tracker

import (
	"fmt"
	"image"
	"os"

	"gocv.io/x/gocv"
	"golang.org/x/image/draw"
)

const (
	// patchWidth and patchHeight are the size of the downsampled crop the
	// PatchExtractor builds its appearance feature from
	patchWidth  = 16
	patchHeight = 32
	// reidWidth and reidHeight are the input size of the re-identification
	// network
	reidWidth  = 64
	reidHeight = 128
)

// Extractor computes an appearance feature for each box on the frame.  The
// frame must not be modified.
type Extractor interface {
	Extract(frame gocv.Mat, rects []Rect) ([][]float32, error)
	Close() error
}

// cropRect returns the box clipped to the frame, the second result is false
// when nothing of the box lies inside the frame
func cropRect(frame gocv.Mat, r Rect) (image.Rectangle, bool) {

	crop := image.Rect(int(r.TLX()), int(r.TLY()), int(r.BRX()), int(r.BRY())).
		Intersect(image.Rect(0, 0, frame.Cols(), frame.Rows()))

	return crop, !crop.Empty()
}

// PatchExtractor builds appearance features from the pixels of a small
// downsampled patch of each box, mean subtracted and L2 normalised
type PatchExtractor struct{}

// NewPatchExtractor returns a new PatchExtractor
func NewPatchExtractor() *PatchExtractor {
	return &PatchExtractor{}
}

// Extract returns one feature per rect, boxes outside the frame get an empty
// feature
func (p *PatchExtractor) Extract(frame gocv.Mat, rects []Rect) ([][]float32, error) {

	feats := make([][]float32, len(rects))

	if frame.Empty() {
		return feats, nil
	}

	dst := image.NewRGBA(image.Rect(0, 0, patchWidth, patchHeight))

	for i, r := range rects {

		crop, ok := cropRect(frame, r)

		if !ok {
			continue
		}

		// clone so the patch is continuous in memory
		region := frame.Region(crop)
		patch := region.Clone()
		region.Close()

		img, err := patch.ToImage()
		patch.Close()

		if err != nil {
			return nil, fmt.Errorf("error converting patch to image: %w", err)
		}

		draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)

		feats[i] = patchFeature(dst)
	}

	return feats, nil
}

// patchFeature flattens the patch into a zero mean unit length vector
func patchFeature(img *image.RGBA) []float32 {

	f := make([]float32, 0, patchWidth*patchHeight*3)
	var sum float32

	for y := 0; y < patchHeight; y++ {
		for x := 0; x < patchWidth; x++ {
			c := img.RGBAAt(x, y)
			f = append(f, float32(c.R), float32(c.G), float32(c.B))
			sum += float32(c.R) + float32(c.G) + float32(c.B)
		}
	}

	mean := sum / float32(len(f))

	for i := range f {
		f[i] -= mean
	}

	return normalize(f)
}

// Close is a no-op
func (p *PatchExtractor) Close() error {
	return nil
}

// NetExtractor computes appearance features with an ONNX re-identification
// network run through OpenCV's DNN module
type NetExtractor struct {
	net gocv.Net
}

// NewNetExtractor loads the re-identification model file.  When useAccel is
// set the network runs on the CUDA backend in half precision.
func NewNetExtractor(modelFile string, useAccel bool) (*NetExtractor, error) {

	if _, err := os.Stat(modelFile); err != nil {
		return nil, fmt.Errorf("error opening re-identification model: %w", err)
	}

	net := gocv.ReadNet(modelFile, "")

	if net.Empty() {
		return nil, fmt.Errorf("error loading re-identification model: %s", modelFile)
	}

	if useAccel {
		net.SetPreferableBackend(gocv.NetBackendCUDA)
		net.SetPreferableTarget(gocv.NetTargetCUDAFP16)
	}

	return &NetExtractor{net: net}, nil
}

// Extract runs the network once per box
func (n *NetExtractor) Extract(frame gocv.Mat, rects []Rect) ([][]float32, error) {

	feats := make([][]float32, len(rects))

	if frame.Empty() {
		return feats, nil
	}

	for i, r := range rects {

		crop, ok := cropRect(frame, r)

		if !ok {
			continue
		}

		feat, err := n.embed(frame, crop)

		if err != nil {
			return nil, err
		}

		feats[i] = feat
	}

	return feats, nil
}

func (n *NetExtractor) embed(frame gocv.Mat, crop image.Rectangle) ([]float32, error) {

	region := frame.Region(crop)
	defer region.Close()

	blob := gocv.BlobFromImage(region, 1.0/255.0, image.Pt(reidWidth, reidHeight),
		gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	n.net.SetInput(blob, "")

	out := n.net.Forward("")
	defer out.Close()

	data, err := out.DataPtrFloat32()

	if err != nil {
		return nil, fmt.Errorf("error reading re-identification output: %w", err)
	}

	feat := make([]float32, len(data))
	copy(feat, data)

	return normalize(feat), nil
}

// Close releases the network
func (n *NetExtractor) Close() error {
	return n.net.Close()
}
