// Package vector provides the embedding vector type and exact cosine
// similarity ranking. Ranking is brute force over all candidates with a
// stable sort, so equal scores keep their original candidate order.
package vector

import (
	"math"
	"sort"

	recallerrors "github.com/notewell/recall/internal/errors"
)

// Vector is an embedding vector with its declared dimensionality.
type Vector struct {
	Values     []float32 `json:"values"`
	Dimensions int       `json:"dimensions"`
}

// New builds a Vector from raw values, declaring their length as the
// dimensionality.
func New(values []float32) Vector {
	return Vector{Values: values, Dimensions: len(values)}
}

// IsZero reports whether the vector carries no values.
func (v Vector) IsZero() bool {
	return len(v.Values) == 0
}

// Scored pairs a candidate's position in the input slice with its
// similarity to the query.
type Scored struct {
	Index int
	Score float64
}

// Cosine computes the cosine similarity of a and b, in [-1, 1].
// Vectors of different dimensionality fail with a dimension-mismatch
// error. A zero-magnitude vector is maximally dissimilar: the result is
// 0, not an error.
func Cosine(a, b Vector) (float64, error) {
	if a.Dimensions != b.Dimensions {
		return 0, recallerrors.DimensionMismatch(a.Dimensions, b.Dimensions)
	}

	var dot, magA, magB float64
	for i := range a.Values {
		av := float64(a.Values[i])
		bv := float64(b.Values[i])
		dot += av * bv
		magA += av * av
		magB += bv * bv
	}

	if magA == 0 || magB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB)), nil
}

// TopK ranks candidates by cosine similarity to the query, descending,
// and returns the first min(k, len(candidates)) entries. Ties keep the
// original candidate order. Inputs are not mutated.
func TopK(query Vector, candidates []Vector, k int) ([]Scored, error) {
	if k <= 0 || len(candidates) == 0 {
		return nil, nil
	}

	scored := make([]Scored, len(candidates))
	for i, c := range candidates {
		score, err := Cosine(query, c)
		if err != nil {
			return nil, err
		}
		scored[i] = Scored{Index: i, Score: score}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if k > len(scored) {
		k = len(scored)
	}
	return scored[:k], nil
}
