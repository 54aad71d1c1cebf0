package postprocess

import (
	"fmt"
)

// YOLOv5 decodes the output tensor of a YOLOv5 model exported to ONNX
type YOLOv5 struct {
	// Params are the Model configuration parameters
	Params YOLOv5Params
}

// YOLOv5Params defines the struct containing the YOLOv5 parameters to use
// for post processing operations
type YOLOv5Params struct {
	// BoxThreshold is the minimum objectness score required for a bounding
	// box region to be considered for processing
	BoxThreshold float32
	// ObjectClassNum is the number of different object classes the Model has
	// been trained with
	ObjectClassNum int
	// ProbBoxSize is the length of array elements representing each bounding
	// box's attributes.  Which represents the bounding box attributes plus
	// number of objects (ObjectClassNum) the Model was trained with
	ProbBoxSize int
}

// YOLOv5COCOParams returns an instance of YOLOv5Params configured with
// default values for a Model trained on the COCO dataset featuring:
// - Object Classes: 80
// - Box Threshold: 0.001
// - Prob Box Size: 85
//   - This is 80 Object Classes plus the 5 attributes used to define a bounding
//     box being:
//   - x & y coordinates for the center of the bounding box
//   - width and height of the box
//   - objectness score
func YOLOv5COCOParams() YOLOv5Params {
	return YOLOv5Params{
		BoxThreshold:   0.001,
		ObjectClassNum: 80,
		ProbBoxSize:    85,
	}
}

// NewYOLOv5 returns an instance of the YOLOv5 post processor
func NewYOLOv5(p YOLOv5Params) *YOLOv5 {
	return &YOLOv5{
		Params: p,
	}
}

// DetectObjects decodes the flattened [1, rows, ProbBoxSize] output tensor
// into candidates in model input coordinates.  The candidate probability
// is the objectness score multiplied by the best class score.  Boxes are
// clamped to the model input of width x height.
func (y *YOLOv5) DetectObjects(data []float32, width, height int) ([]Candidate, error) {

	if y.Params.ProbBoxSize < 6 {
		return nil, fmt.Errorf("invalid probability box size %d", y.Params.ProbBoxSize)
	}

	if len(data)%y.Params.ProbBoxSize != 0 {
		return nil, fmt.Errorf("output length %d is not a multiple of box size %d",
			len(data), y.Params.ProbBoxSize)
	}

	rows := len(data) / y.Params.ProbBoxSize
	classes := y.Params.ProbBoxSize - 5
	group := make([]Candidate, 0)

	for i := 0; i < rows; i++ {

		row := data[i*y.Params.ProbBoxSize : (i+1)*y.Params.ProbBoxSize]
		objConf := row[4]

		if objConf < y.Params.BoxThreshold {
			continue
		}

		maxClassProbs := row[5]
		maxClassID := 0

		for k := 1; k < classes; k++ {
			if row[5+k] > maxClassProbs {
				maxClassID = k
				maxClassProbs = row[5+k]
			}
		}

		boxX, boxY, boxW, boxH := row[0], row[1], row[2], row[3]

		group = append(group, Candidate{
			Box: BoxRect{
				Left:   clamp(boxX-boxW/2, 0, float32(width)),
				Top:    clamp(boxY-boxH/2, 0, float32(height)),
				Right:  clamp(boxX+boxW/2, 0, float32(width)),
				Bottom: clamp(boxY+boxH/2, 0, float32(height)),
			},
			Probability: objConf * maxClassProbs,
			Class:       maxClassID,
		})
	}

	return group, nil
}
