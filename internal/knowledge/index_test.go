package knowledge

import (
	"errors"
	"testing"
)

func TestFlatIndexSearchPadsMissing(t *testing.T) {
	ix, err := buildFlatIndex([][]float32{{1, 0}, {0, 1}})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	scores, ids, err := ix.Search([]float32{0.2, 0.9}, 4)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	wantIDs := []int{1, 0, -1, -1}
	for i := range wantIDs {
		if ids[i] != wantIDs[i] {
			t.Fatalf("ids: want %v got %v", wantIDs, ids)
		}
	}
	if scores[0] < scores[1] {
		t.Fatalf("scores not descending: %v", scores)
	}
}

func TestFlatIndexDimensionChecks(t *testing.T) {
	if _, err := buildFlatIndex([][]float32{{1, 0}, {1}}); !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("want ErrDimensionMismatch on build, got %v", err)
	}
	ix, err := buildFlatIndex([][]float32{{1, 0}})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if _, _, err := ix.Search([]float32{1, 0, 0}, 1); !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("want ErrDimensionMismatch on search, got %v", err)
	}
}
