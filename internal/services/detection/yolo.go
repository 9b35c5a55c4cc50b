package detection

import (
	"bufio"
	"fmt"
	"image"
	"os"
	"sort"
	"strings"

	"distancing-worker-go/internal/models"
)

// Candidate is a raw box proposal before overlap suppression
type Candidate struct {
	Box        image.Rectangle
	Center     image.Point
	Confidence float32
	ClassID    int
}

// DecodeYOLO converts YOLO output rows of the form
// [cx, cy, w, h, objectness, class scores...] (normalized to the network
// input) into pixel space candidates for classID whose score exceeds minConf.
func DecodeYOLO(rows [][]float32, frameW, frameH, classID int, minConf float32) []Candidate {
	var candidates []Candidate
	for _, row := range rows {
		if len(row) <= 5 {
			continue
		}

		scores := row[5:]
		best := 0
		for i, s := range scores {
			if s > scores[best] {
				best = i
			}
		}
		confidence := scores[best]
		if best != classID || confidence <= minConf {
			continue
		}

		centerX := row[0] * float32(frameW)
		centerY := row[1] * float32(frameH)
		width := row[2] * float32(frameW)
		height := row[3] * float32(frameH)

		x := int(centerX - width/2)
		y := int(centerY - height/2)

		candidates = append(candidates, Candidate{
			Box:        image.Rect(x, y, x+int(width), y+int(height)),
			Center:     image.Pt(int(centerX), int(centerY)),
			Confidence: confidence,
			ClassID:    best,
		})
	}
	return candidates
}

// SuppressOverlaps performs Non-Maximum Suppression, keeping the highest
// scoring candidate of every group overlapping by more than iouThreshold.
// Candidates at or below scoreThreshold are dropped first.
func SuppressOverlaps(candidates []Candidate, scoreThreshold, iouThreshold float32) []Candidate {
	kept := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Confidence > scoreThreshold {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		return kept
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Confidence > kept[j].Confidence
	})

	keep := make([]bool, len(kept))
	for i := range keep {
		keep[i] = true
	}

	for i := 0; i < len(kept); i++ {
		if !keep[i] {
			continue
		}
		for j := i + 1; j < len(kept); j++ {
			if keep[j] && iou(kept[i].Box, kept[j].Box) > iouThreshold {
				keep[j] = false
			}
		}
	}

	result := make([]Candidate, 0, len(kept))
	for i, c := range kept {
		if keep[i] {
			result = append(result, c)
		}
	}
	return result
}

// iou calculates Intersection over Union of two boxes
func iou(a, b image.Rectangle) float32 {
	inter := a.Intersect(b)
	if inter.Empty() {
		return 0
	}
	interArea := float32(inter.Dx() * inter.Dy())
	union := float32(a.Dx()*a.Dy()+b.Dx()*b.Dy()) - interArea
	if union <= 0 {
		return 0
	}
	return interArea / union
}

// ToDetections converts kept candidates into a frame's DetectionSet
func ToDetections(candidates []Candidate) models.DetectionSet {
	dets := make(models.DetectionSet, 0, len(candidates))
	for _, c := range candidates {
		dets = append(dets, models.Detection{
			Confidence: float64(c.Confidence),
			BBox:       models.NewRegion(c.Box.Min.X, c.Box.Min.Y, c.Box.Max.X, c.Box.Max.Y),
			Centroid:   c.Center,
		})
	}
	return dets
}

// LoadLabels reads a newline separated class names file such as coco.names
func LoadLabels(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open labels file: %w", err)
	}
	defer f.Close()

	var labels []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		labels = append(labels, strings.TrimSpace(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read labels file: %w", err)
	}
	for len(labels) > 0 && labels[len(labels)-1] == "" {
		labels = labels[:len(labels)-1]
	}
	return labels, nil
}

// ClassIndex returns the position of label in labels
func ClassIndex(labels []string, label string) (int, error) {
	for i, l := range labels {
		if l == label {
			return i, nil
		}
	}
	return -1, fmt.Errorf("class %q not found in %d labels", label, len(labels))
}
