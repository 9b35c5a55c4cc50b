package detection

import (
	"image"
	"os"
	"path/filepath"
	"testing"

	"go.viam.com/test"

	"distancing-worker-go/internal/models"
)

func TestDecodeYOLO(t *testing.T) {
	rows := [][]float32{
		// person, confident
		{0.5, 0.5, 0.125, 0.25, 0.9, 0.875, 0.0625},
		// best class is not a person
		{0.25, 0.25, 0.125, 0.25, 0.9, 0.125, 0.75},
		// person below threshold
		{0.75, 0.75, 0.125, 0.25, 0.9, 0.25, 0.0625},
		// truncated row
		{0.5, 0.5, 0.1, 0.1},
	}

	candidates := DecodeYOLO(rows, 800, 400, 0, 0.3)
	test.That(t, candidates, test.ShouldHaveLength, 1)
	test.That(t, candidates[0].Box, test.ShouldResemble, image.Rect(350, 150, 450, 250))
	test.That(t, candidates[0].Center, test.ShouldResemble, image.Pt(400, 200))
	test.That(t, candidates[0].Confidence, test.ShouldEqual, float32(0.875))
	test.That(t, candidates[0].ClassID, test.ShouldEqual, 0)
}

func TestSuppressOverlaps(t *testing.T) {
	candidates := []Candidate{
		{Box: image.Rect(10, 10, 110, 110), Confidence: 0.8},
		{Box: image.Rect(0, 0, 100, 100), Confidence: 0.9},
		{Box: image.Rect(300, 300, 350, 350), Confidence: 0.5},
		{Box: image.Rect(500, 500, 550, 550), Confidence: 0.2},
	}

	kept := SuppressOverlaps(candidates, 0.3, 0.3)
	test.That(t, kept, test.ShouldHaveLength, 2)
	test.That(t, kept[0].Box, test.ShouldResemble, image.Rect(0, 0, 100, 100))
	test.That(t, kept[1].Box, test.ShouldResemble, image.Rect(300, 300, 350, 350))

	test.That(t, SuppressOverlaps(nil, 0.3, 0.3), test.ShouldBeEmpty)
}

func TestIOU(t *testing.T) {
	a := image.Rect(0, 0, 10, 10)
	test.That(t, iou(a, a), test.ShouldEqual, float32(1))
	test.That(t, iou(a, image.Rect(20, 20, 30, 30)), test.ShouldEqual, float32(0))
	test.That(t, float64(iou(a, image.Rect(5, 0, 15, 10))), test.ShouldAlmostEqual, 50.0/150.0, 1e-6)
}

func TestToDetections(t *testing.T) {
	dets := ToDetections([]Candidate{
		{Box: image.Rect(350, 150, 450, 250), Center: image.Pt(400, 200), Confidence: 0.875},
	})
	test.That(t, dets, test.ShouldResemble, models.DetectionSet{{
		Confidence: 0.875,
		BBox:       models.NewRegion(350, 150, 450, 250),
		Centroid:   image.Pt(400, 200),
	}})
}

func TestLoadLabels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coco.names")
	err := os.WriteFile(path, []byte("person\nbicycle\ncar\n\n"), 0o644)
	test.That(t, err, test.ShouldBeNil)

	labels, err := LoadLabels(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, labels, test.ShouldResemble, []string{"person", "bicycle", "car"})

	idx, err := ClassIndex(labels, "car")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, idx, test.ShouldEqual, 2)

	_, err = ClassIndex(labels, "giraffe")
	test.That(t, err.Error(), test.ShouldContainSubstring, "giraffe")

	_, err = LoadLabels(filepath.Join(t.TempDir(), "missing.names"))
	test.That(t, err, test.ShouldNotBeNil)
}
