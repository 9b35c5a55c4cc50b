package proximity

import (
	"image"
	"math/rand"
	"testing"

	"go.viam.com/test"

	"distancing-worker-go/internal/models"
)

func at(x, y int) models.Detection {
	return models.Detection{
		Confidence: 0.9,
		BBox:       models.NewRegion(x-10, y-20, x+10, y+20),
		Centroid:   image.Pt(x, y),
	}
}

func TestEvaluateThreePeople(t *testing.T) {
	dets := models.DetectionSet{at(0, 0), at(5, 0), at(100, 100)}

	matrix := DistanceMatrix(dets)
	test.That(t, matrix[0][1], test.ShouldAlmostEqual, 5.0)
	test.That(t, matrix[0][2], test.ShouldAlmostEqual, 141.421, 0.01)
	test.That(t, matrix[1][2], test.ShouldAlmostEqual, 137.931, 0.01)

	violations := Evaluate(dets, 10)
	test.That(t, violations.Sorted(), test.ShouldResemble, []int{0, 1})
	test.That(t, violations.Contains(2), test.ShouldBeFalse)
}

func TestEvaluateFewerThanTwo(t *testing.T) {
	test.That(t, Evaluate(nil, 10).Len(), test.ShouldEqual, 0)
	test.That(t, Evaluate(models.DetectionSet{}, 10).Len(), test.ShouldEqual, 0)

	single := models.DetectionSet{at(0, 0)}
	for _, minDistance := range []float64{0.5, 10, 1e9} {
		test.That(t, Evaluate(single, minDistance).Len(), test.ShouldEqual, 0)
	}
}

func TestEvaluateThresholdBoundary(t *testing.T) {
	// 3-4-5 triangle, distance exactly 5
	dets := models.DetectionSet{at(0, 0), at(3, 4)}

	test.That(t, Evaluate(dets, 5).Len(), test.ShouldEqual, 0)
	test.That(t, Evaluate(dets, 5+1e-9).Sorted(), test.ShouldResemble, []int{0, 1})
}

func TestEvaluateCoincidentCentroids(t *testing.T) {
	dets := models.DetectionSet{at(40, 40), at(40, 40)}
	test.That(t, Evaluate(dets, 1).Sorted(), test.ShouldResemble, []int{0, 1})
}

func TestEvaluateMultiplePairsCountOnce(t *testing.T) {
	// 1 is close to both 0 and 2
	dets := models.DetectionSet{at(0, 0), at(8, 0), at(16, 0), at(500, 500)}
	violations := Evaluate(dets, 10)
	test.That(t, violations.Sorted(), test.ShouldResemble, []int{0, 1, 2})
	test.That(t, Pairs(dets, 10), test.ShouldResemble, [][2]int{{0, 1}, {1, 2}})
}

func TestEvaluateMatchesPairwiseEnumeration(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 50; trial++ {
		n := rng.Intn(8)
		dets := make(models.DetectionSet, n)
		for i := range dets {
			dets[i] = at(rng.Intn(200), rng.Intn(200))
		}
		minDistance := float64(rng.Intn(80) + 1)

		violations := Evaluate(dets, minDistance)
		for i := range dets {
			near := false
			for j := range dets {
				if i != j && Distance(dets[i], dets[j]) < minDistance {
					near = true
				}
			}
			test.That(t, violations.Contains(i), test.ShouldEqual, near)
		}
		for i := range violations {
			test.That(t, i, test.ShouldBeGreaterThanOrEqualTo, 0)
			test.That(t, i, test.ShouldBeLessThan, len(dets))
		}
	}
}

func TestEvaluateRelabelingInvariance(t *testing.T) {
	dets := models.DetectionSet{at(0, 0), at(300, 300), at(6, 0)}
	swapped := models.DetectionSet{dets[1], dets[0], dets[2]}

	test.That(t, Evaluate(dets, 10).Sorted(), test.ShouldResemble, []int{0, 2})
	test.That(t, Evaluate(swapped, 10).Sorted(), test.ShouldResemble, []int{1, 2})
}

func TestDistanceMatrixSymmetric(t *testing.T) {
	dets := models.DetectionSet{at(1, 2), at(30, 7), at(-4, 19)}
	matrix := DistanceMatrix(dets)
	test.That(t, matrix, test.ShouldHaveLength, 3)
	for i := range matrix {
		test.That(t, matrix[i][i], test.ShouldEqual, 0.0)
		for j := range matrix {
			test.That(t, matrix[i][j], test.ShouldEqual, matrix[j][i])
		}
	}
}

func TestEvaluateDoesNotAllocatePerPair(t *testing.T) {
	dets := make(models.DetectionSet, 2000)
	for i := range dets {
		x := (i % 50) * 100
		y := (i / 50) * 100
		dets[i] = models.NewDetection(0.9, models.NewRegion(x, y, x+10, y+10))
	}

	var violations models.ViolationSet
	allocs := testing.AllocsPerRun(2, func() {
		violations = Evaluate(dets, 50)
	})
	test.That(t, violations.Len(), test.ShouldEqual, 0)
	test.That(t, allocs, test.ShouldBeLessThan, 10)
}
