package ai

import (
	"fmt"

	"github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
)

// Tokenizer encodes text for a BERT style encoder from a HuggingFace tokenizer.json.
type Tokenizer struct {
	tk  *tokenizer.Tokenizer
	pad int64
}

// LoadTokenizer reads path and truncates every encoding to maxLen tokens, [CLS] and [SEP]
// included. Padding is left to the caller.
func LoadTokenizer(path string, maxLen int) (*Tokenizer, error) {
	tk, err := pretrained.FromFile(path)
	if err != nil {
		return nil, fmt.Errorf("load tokenizer %s failed: %w", path, err)
	}
	tk.WithTruncation(&tokenizer.TruncationParams{
		MaxLength: maxLen,
		Strategy:  tokenizer.LongestFirst,
	})
	tk.WithPadding(nil)

	pad, ok := tk.TokenToId("[PAD]")
	if !ok {
		return nil, fmt.Errorf("tokenizer %s has no [PAD] token", path)
	}
	return &Tokenizer{tk: tk, pad: int64(pad)}, nil
}

// Encode returns the token ids of text with special tokens added.
func (t *Tokenizer) Encode(text string) ([]int64, error) {
	enc, err := t.tk.EncodeSingle(text, true)
	if err != nil {
		return nil, fmt.Errorf("encode text failed: %w", err)
	}
	ids := make([]int64, len(enc.Ids))
	for i, id := range enc.Ids {
		ids[i] = int64(id)
	}
	return ids, nil
}
