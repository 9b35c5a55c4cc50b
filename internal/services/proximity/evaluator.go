package proximity

import (
	"math"

	"distancing-worker-go/internal/models"
)

// Distance returns the Euclidean distance between two detections' centroids
func Distance(a, b models.Detection) float64 {
	dx := float64(a.Centroid.X - b.Centroid.X)
	dy := float64(a.Centroid.Y - b.Centroid.Y)
	return math.Hypot(dx, dy)
}

// DistanceMatrix computes the symmetric pairwise distance matrix over all
// centroids. The diagonal is zero. It allocates n*n floats, so it is meant
// for diagnostics; Evaluate does not use it.
func DistanceMatrix(detections models.DetectionSet) [][]float64 {
	n := len(detections)
	matrix := make([][]float64, n)
	for i := range matrix {
		matrix[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := Distance(detections[i], detections[j])
			matrix[i][j] = d
			matrix[j][i] = d
		}
	}
	return matrix
}

// Evaluate returns the handles of every detection that is strictly closer
// than minDistance pixels to at least one other detection. Fewer than two
// detections always yield an empty set.
func Evaluate(detections models.DetectionSet, minDistance float64) models.ViolationSet {
	violations := models.NewViolationSet()
	if len(detections) < 2 {
		return violations
	}

	// upper triangle only, i < j
	for i := 0; i < len(detections); i++ {
		for j := i + 1; j < len(detections); j++ {
			if Distance(detections[i], detections[j]) < minDistance {
				violations.Add(i)
				violations.Add(j)
			}
		}
	}

	return violations
}

// Pairs lists every violating pair (i, j) with i < j
func Pairs(detections models.DetectionSet, minDistance float64) [][2]int {
	var pairs [][2]int
	if len(detections) < 2 {
		return pairs
	}
	for i := 0; i < len(detections); i++ {
		for j := i + 1; j < len(detections); j++ {
			if Distance(detections[i], detections[j]) < minDistance {
				pairs = append(pairs, [2]int{i, j})
			}
		}
	}
	return pairs
}
