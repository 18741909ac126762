// Package utils provides common utility functions for the matchmaker project.
package utils

import "math"

// Dot computes the dot product of two float32 vectors as a float64.
// Returns 0 if the vectors have different lengths or are empty. For
// unit-normalized vectors this equals their cosine similarity.
func Dot(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// CosineSimilarity calculates the cosine similarity between two float32
// vectors. Returns 0 if vectors have different lengths, are empty, or either
// has zero magnitude. The result is in the range [-1, 1], where 1 means
// identical direction, 0 means orthogonal, and -1 means opposite direction.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dotProduct, normA, normB float64

	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
