package models

import (
	"fmt"
	"image"
)

// DetectionInput is a detection as supplied by API clients. Centroid
// defaults to the bbox center when omitted.
type DetectionInput struct {
	Confidence float64 `json:"confidence" example:"0.87"`
	BBox       [4]int  `json:"bbox"`
	Centroid   *[2]int `json:"centroid,omitempty"`
}

// ToDetection validates the input and converts it to a Detection
func (d DetectionInput) ToDetection() (Detection, error) {
	if d.Confidence < 0 || d.Confidence > 1 {
		return Detection{}, fmt.Errorf("confidence must be within [0,1], got %v", d.Confidence)
	}
	bbox := NewRegion(d.BBox[0], d.BBox[1], d.BBox[2], d.BBox[3])
	if !bbox.Valid() {
		return Detection{}, fmt.Errorf("bbox %v must satisfy x1<x2 and y1<y2", d.BBox)
	}

	det := NewDetection(d.Confidence, bbox)
	if d.Centroid != nil {
		det.Centroid = image.Pt(d.Centroid[0], d.Centroid[1])
	}
	return det, nil
}

// ToDetectionSet converts a list of inputs, preserving order
func ToDetectionSet(inputs []DetectionInput) (DetectionSet, error) {
	dets := make(DetectionSet, 0, len(inputs))
	for i, in := range inputs {
		det, err := in.ToDetection()
		if err != nil {
			return nil, fmt.Errorf("detection %d: %w", i, err)
		}
		dets = append(dets, det)
	}
	return dets, nil
}

// EvaluateRequest asks for the violation set of one frame's detections
type EvaluateRequest struct {
	Detections  []DetectionInput `json:"detections"`
	MinDistance float64          `json:"min_distance,omitempty" example:"50"`
}

// EvaluateResponse is the violation set of one frame
type EvaluateResponse struct {
	MinDistance         float64  `json:"min_distance"`
	DetectionCount      int      `json:"detection_count"`
	ViolationCount      int      `json:"violation_count"`
	Violations          []int    `json:"violations"`
	Pairs               [][2]int `json:"pairs"`
	ViolationPercentage float64  `json:"violation_percentage"`
}

// ProcessResponse is returned for a frame run through the full pipeline
type ProcessResponse struct {
	Report     FrameReport  `json:"report"`
	Detections DetectionSet `json:"detections"`
}
