package knowledge

import (
	"strings"
	"testing"

	"pgregory.net/rapid"
)

func TestChunkText(t *testing.T) {
	tests := []struct {
		name string
		text string
		size int
		want []string
	}{
		{"empty", "", 3, nil},
		{"whitespace only", " \n\t ", 3, nil},
		{"shorter than size", "a b", 3, []string{"a b"}},
		{"exact multiple", "a b c d", 2, []string{"a b", "c d"}},
		{"short tail", "a b c d e", 2, []string{"a b", "c d", "e"}},
		{"collapses spacing", "a\n\n b\t\tc", 5, []string{"a b c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ChunkText(tt.text, tt.size)
			if strings.Join(got, "|") != strings.Join(tt.want, "|") || len(got) != len(tt.want) {
				t.Fatalf("want %q got %q", tt.want, got)
			}
		})
	}
}

func TestChunkTextDefaultSize(t *testing.T) {
	got := ChunkText(strings.Repeat("w ", 501), 0)
	if len(got) != 2 {
		t.Fatalf("size<=0 should use %d words per chunk, got %d chunks", DefaultChunkSize, len(got))
	}
}

func TestChunkTextProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		words := rapid.SliceOfN(rapid.StringMatching(`[a-zA-Z0-9]{1,8}`), 0, 200).Draw(t, "words")
		size := rapid.IntRange(1, 50).Draw(t, "size")
		sep := rapid.SampledFrom([]string{" ", "  ", "\n", "\t", " \n "}).Draw(t, "sep")

		chunks := ChunkText(strings.Join(words, sep), size)

		wantChunks := (len(words) + size - 1) / size
		if len(chunks) != wantChunks {
			t.Fatalf("want %d chunks, got %d", wantChunks, len(chunks))
		}
		var rejoined []string
		for i, c := range chunks {
			n := len(strings.Fields(c))
			if i < len(chunks)-1 && n != size {
				t.Fatalf("chunk %d has %d words, want %d", i, n, size)
			}
			if n == 0 || n > size {
				t.Fatalf("chunk %d has %d words", i, n)
			}
			rejoined = append(rejoined, c)
		}
		if strings.Join(rejoined, " ") != strings.Join(words, " ") {
			t.Fatal("chunks do not reproduce the word sequence")
		}
	})
}
