package knowledge

import (
	"fmt"
	"sort"
)

// flatIndex is an exact inner-product index: every query scans all vectors.
// It is immutable; Base builds a fresh one over the full set after each add.
type flatIndex struct {
	dim  int
	n    int
	data []float32
}

func buildFlatIndex(vectors [][]float32) (*flatIndex, error) {
	if len(vectors) == 0 {
		return nil, fmt.Errorf("build index: no vectors")
	}
	dim := len(vectors[0])
	if dim == 0 {
		return nil, fmt.Errorf("build index: zero-length vector")
	}
	data := make([]float32, 0, dim*len(vectors))
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("%w: vector %d has %d dims, index has %d", ErrDimensionMismatch, i, len(v), dim)
		}
		data = append(data, v...)
	}
	return &flatIndex{dim: dim, n: len(vectors), data: data}, nil
}

func (ix *flatIndex) Len() int { return ix.n }

// Search returns k (score, id) pairs by descending inner product. When k exceeds the
// number of vectors the tail is padded with id -1, which callers must skip.
// Equal scores keep insertion order.
func (ix *flatIndex) Search(query []float32, k int) ([]float32, []int, error) {
	if len(query) != ix.dim {
		return nil, nil, fmt.Errorf("%w: query has %d dims, index has %d", ErrDimensionMismatch, len(query), ix.dim)
	}
	if k <= 0 {
		return nil, nil, nil
	}

	order := make([]int, ix.n)
	scores := make([]float32, ix.n)
	for i := 0; i < ix.n; i++ {
		order[i] = i
		scores[i] = dot(query, ix.data[i*ix.dim:(i+1)*ix.dim])
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	outScores := make([]float32, k)
	outIDs := make([]int, k)
	for i := 0; i < k; i++ {
		if i < ix.n {
			outIDs[i] = order[i]
			outScores[i] = scores[order[i]]
			continue
		}
		outIDs[i] = -1
	}
	return outScores, outIDs, nil
}

func dot(a, b []float32) float32 {
	var s float32
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}
