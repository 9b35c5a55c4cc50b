package models

import (
	"image"
	"image/color"
	"sort"
	"time"
)

// Region is a pixel rectangle (x1,y1)-(x2,y2) used for rendering
type Region struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// NewRegion builds a region from its corner coordinates
func NewRegion(x1, y1, x2, y2 int) Region {
	return Region{X1: x1, Y1: y1, X2: x2, Y2: y2}
}

// Rect converts the region to an image.Rectangle
func (r Region) Rect() image.Rectangle {
	return image.Rect(r.X1, r.Y1, r.X2, r.Y2)
}

// Width returns region width
func (r Region) Width() int {
	return r.X2 - r.X1
}

// Height returns region height
func (r Region) Height() int {
	return r.Y2 - r.Y1
}

// Center returns the geometric center of the region
func (r Region) Center() image.Point {
	return image.Pt((r.X1+r.X2)/2, (r.Y1+r.Y2)/2)
}

// Valid reports whether x1<x2 and y1<y2
func (r Region) Valid() bool {
	return r.X1 < r.X2 && r.Y1 < r.Y2
}

// Color is a 3-channel RGB intensity tuple
type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// RGBA returns the fully opaque color.RGBA for c
func (c Color) RGBA() color.RGBA {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 255}
}

// Annotation colors. Semantics live in the rendering layer only.
var (
	ColorSafe      = Color{R: 0, G: 255, B: 0}
	ColorViolation = Color{R: 255, G: 0, B: 0}
	ColorStatusBar = Color{R: 10, G: 10, B: 10}
	ColorLabel     = Color{R: 200, G: 200, B: 200}
)

// Detection is one person localization result from the detector
type Detection struct {
	Confidence float64     `json:"confidence"`
	BBox       Region      `json:"bbox"`
	Centroid   image.Point `json:"centroid"`
}

// NewDetection builds a detection whose centroid is the center of bbox
func NewDetection(confidence float64, bbox Region) Detection {
	return Detection{
		Confidence: confidence,
		BBox:       bbox,
		Centroid:   bbox.Center(),
	}
}

// DetectionSet is the ordered set of detections for one frame. The slice
// index is the frame-local handle referenced by ViolationSet.
type DetectionSet []Detection

// Centroids returns the centroid of every detection in order
func (ds DetectionSet) Centroids() []image.Point {
	points := make([]image.Point, len(ds))
	for i, d := range ds {
		points[i] = d.Centroid
	}
	return points
}

// ViolationSet holds handles into a DetectionSet
type ViolationSet map[int]struct{}

// NewViolationSet returns a set containing the given handles
func NewViolationSet(indices ...int) ViolationSet {
	vs := make(ViolationSet, len(indices))
	for _, i := range indices {
		vs.Add(i)
	}
	return vs
}

// Add inserts handle i
func (vs ViolationSet) Add(i int) {
	vs[i] = struct{}{}
}

// Contains reports whether handle i is a violator
func (vs ViolationSet) Contains(i int) bool {
	_, ok := vs[i]
	return ok
}

// Len returns the number of violators
func (vs ViolationSet) Len() int {
	return len(vs)
}

// Sorted returns the handles in ascending order
func (vs ViolationSet) Sorted() []int {
	out := make([]int, 0, len(vs))
	for i := range vs {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// FrameReport is the per-frame summary published to subscribers
type FrameReport struct {
	WorkerID            string    `json:"worker_id"`
	Source              string    `json:"source,omitempty"`
	FrameID             int64     `json:"frame_id"`
	Timestamp           time.Time `json:"timestamp"`
	Width               int       `json:"width"`
	Height              int       `json:"height"`
	MinDistance         float64   `json:"min_distance"`
	DetectionCount      int       `json:"detection_count"`
	ViolationCount      int       `json:"violation_count"`
	Violations          []int     `json:"violations"`
	ViolationPercentage float64   `json:"violation_percentage"`
	ProcessingTime      string    `json:"processing_time"`
}

// ViolationPercentage returns violators as a percentage of detections, 0
// when there are no detections
func ViolationPercentage(detections, violations int) float64 {
	if detections == 0 {
		return 0
	}
	return float64(violations) / float64(detections) * 100
}
