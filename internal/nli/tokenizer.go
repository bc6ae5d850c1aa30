package nli

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// WordPieceTokenizer implements a minimal BERT-compatible tokenizer backed by
// a vocab.txt file.
type WordPieceTokenizer struct {
	vocab        map[string]int64
	lowerCase    bool
	clsID        int64
	sepID        int64
	padID        int64
	unkID        int64
	continuation string
}

// LoadWordPieceTokenizer builds the tokenizer from vocab.txt.
func LoadWordPieceTokenizer(path string) (*WordPieceTokenizer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vocab: %w", err)
	}
	defer f.Close()

	vocab := make(map[string]int64)
	sc := bufio.NewScanner(f)
	var idx int64
	for sc.Scan() {
		token := strings.TrimSpace(sc.Text())
		if token == "" {
			continue
		}
		vocab[token] = idx
		idx++
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan vocab: %w", err)
	}

	return &WordPieceTokenizer{
		vocab:        vocab,
		lowerCase:    true,
		continuation: "##",
		clsID:        vocab["[CLS]"],
		sepID:        vocab["[SEP]"],
		padID:        vocab["[PAD]"],
		unkID:        vocab["[UNK]"],
	}, nil
}

// Encode converts text into token IDs and an attention mask of length seqLen.
func (t *WordPieceTokenizer) Encode(text string, seqLen int) ([]int64, []int64) {
	if seqLen <= 0 {
		return nil, nil
	}

	tokens := []int64{t.clsID}
	tokens = t.appendWords(tokens, text, seqLen-1)
	tokens = append(tokens, t.sepID)

	return t.padToLen(tokens, seqLen)
}

// EncodePair encodes a premise/hypothesis pair the way BERT-style NLI models
// expect: [CLS] premise [SEP] hypothesis [SEP], with token type IDs marking
// the second segment.
func (t *WordPieceTokenizer) EncodePair(premise, hypothesis string, seqLen int) (ids, attn, typeIDs []int64) {
	if seqLen <= 0 {
		return nil, nil, nil
	}

	// Reserve room for the hypothesis; cap the premise at roughly two
	// thirds of the window so long evidence cannot crowd the claim out.
	premiseBudget := seqLen * 2 / 3

	tokens := []int64{t.clsID}
	tokens = t.appendWords(tokens, premise, premiseBudget-1)
	tokens = append(tokens, t.sepID)
	firstSegment := len(tokens)

	tokens = t.appendWords(tokens, hypothesis, seqLen-1)
	tokens = append(tokens, t.sepID)

	ids, attn = t.padToLen(tokens, seqLen)

	typeIDs = make([]int64, seqLen)
	for i := firstSegment; i < len(tokens) && i < seqLen; i++ {
		typeIDs[i] = 1
	}
	return ids, attn, typeIDs
}

func (t *WordPieceTokenizer) appendWords(tokens []int64, text string, limit int) []int64 {
	for _, w := range strings.Fields(text) {
		if t.lowerCase {
			w = strings.ToLower(w)
		}
		tokens = append(tokens, t.wordPiece(w)...)
		if len(tokens) >= limit {
			break
		}
	}
	if len(tokens) > limit {
		tokens = tokens[:limit]
	}
	return tokens
}

func (t *WordPieceTokenizer) padToLen(tokens []int64, seqLen int) ([]int64, []int64) {
	if len(tokens) > seqLen {
		tokens = tokens[:seqLen]
		tokens[seqLen-1] = t.sepID
	}

	attn := make([]int64, seqLen)
	for i := 0; i < len(tokens); i++ {
		attn[i] = 1
	}

	if len(tokens) < seqLen {
		pad := make([]int64, seqLen-len(tokens))
		for i := range pad {
			pad[i] = t.padID
		}
		tokens = append(tokens, pad...)
	}
	return tokens, attn
}

func (t *WordPieceTokenizer) wordPiece(token string) []int64 {
	if id, ok := t.vocab[token]; ok {
		return []int64{id}
	}

	var pieces []int64
	start := 0
	for start < len(token) {
		end := len(token)
		matched := false
		for end > start {
			sub := token[start:end]
			if start > 0 {
				sub = t.continuation + sub
			}
			if id, ok := t.vocab[sub]; ok {
				pieces = append(pieces, id)
				start = end
				matched = true
				break
			}
			end--
		}
		if !matched {
			return []int64{t.unkID}
		}
	}
	if len(pieces) == 0 {
		return []int64{t.unkID}
	}
	return pieces
}
