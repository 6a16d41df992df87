package domain

import "math"

// Dot returns the dot product of two vectors.
// Assumes the vectors are the same length (caller's responsibility).
func Dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// NormalizeL2 L2-normalizes v in place.
// Returns false if v is empty or has zero norm, leaving it unchanged.
func NormalizeL2(v []float32) bool {
	if len(v) == 0 {
		return false
	}
	norm2 := Dot(v, v)
	if norm2 == 0 {
		return false
	}
	inv := 1 / float32(math.Sqrt(float64(norm2)))
	for i := range v {
		v[i] *= inv
	}
	return true
}

// Cosine returns the cosine similarity of two vectors in [-1, 1].
// Returns 0 when either vector has zero norm.
func Cosine(a, b []float32) float64 {
	na := Dot(a, a)
	nb := Dot(b, b)
	if na == 0 || nb == 0 {
		return 0
	}
	return float64(Dot(a, b)) / (math.Sqrt(float64(na)) * math.Sqrt(float64(nb)))
}
