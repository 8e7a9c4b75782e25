package emb

import (
	"errors"
	"fmt"

	"github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
)

type clipTokenizer struct {
	tk        *tokenizer.Tokenizer
	maxSeqLen int
}

func newClipTokenizer(path string, maxSeqLen int) (*clipTokenizer, error) {
	if path == "" {
		return nil, errors.New("tokenizer path is required")
	}
	tk, err := pretrained.FromFile(path)
	if err != nil {
		return nil, fmt.Errorf("load tokenizer %s: %w", path, err)
	}
	return &clipTokenizer{tk: tk, maxSeqLen: maxSeqLen}, nil
}

// encode produces fixed-length id and attention-mask rows. The text tower
// expects exactly maxSeqLen positions: longer encodings are truncated while
// keeping the final end-of-text token, shorter ones are zero-padded.
func (t *clipTokenizer) encode(text string) ([]int64, []int64, error) {
	en, err := t.tk.EncodeSingle(text, true)
	if err != nil {
		return nil, nil, fmt.Errorf("tokenize: %w", err)
	}
	ids := en.Ids
	if len(ids) > t.maxSeqLen {
		eot := ids[len(ids)-1]
		ids = append(ids[:t.maxSeqLen-1:t.maxSeqLen-1], eot)
	}
	outIds := make([]int64, t.maxSeqLen)
	outMask := make([]int64, t.maxSeqLen)
	for i, id := range ids {
		outIds[i] = int64(id)
		outMask[i] = 1
	}
	return outIds, outMask, nil
}
