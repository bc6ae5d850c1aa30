package nli

import (
	"os"
	"path/filepath"
	"testing"
)

func writeVocab(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	vocab := "[PAD]\n[UNK]\n[CLS]\n[SEP]\nthe\ncat\nsat\n##s\nwater\n"
	path := filepath.Join(dir, "vocab.txt")
	if err := os.WriteFile(path, []byte(vocab), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestEncode(t *testing.T) {
	tok, err := LoadWordPieceTokenizer(writeVocab(t))
	if err != nil {
		t.Fatal(err)
	}

	ids, attn := tok.Encode("The cats sat", 10)
	want := []int64{2, 4, 5, 7, 6, 3, 0, 0, 0, 0}
	if len(ids) != 10 {
		t.Fatalf("ids length = %d, want 10", len(ids))
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("ids = %v, want %v", ids, want)
		}
	}
	for i := 0; i < 6; i++ {
		if attn[i] != 1 {
			t.Errorf("attn[%d] = %d, want 1", i, attn[i])
		}
	}
	for i := 6; i < 10; i++ {
		if attn[i] != 0 {
			t.Errorf("attn[%d] = %d, want 0", i, attn[i])
		}
	}
}

func TestEncodeUnknownWord(t *testing.T) {
	tok, err := LoadWordPieceTokenizer(writeVocab(t))
	if err != nil {
		t.Fatal(err)
	}

	ids, _ := tok.Encode("xyzzy", 5)
	if ids[1] != 1 {
		t.Errorf("unknown word should map to [UNK], got %v", ids)
	}
}

func TestEncodePair(t *testing.T) {
	tok, err := LoadWordPieceTokenizer(writeVocab(t))
	if err != nil {
		t.Fatal(err)
	}

	ids, attn, typeIDs := tok.EncodePair("the cat", "cats", 12)
	want := []int64{2, 4, 5, 3, 5, 7, 3}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("ids = %v, want prefix %v", ids[:len(want)], want)
		}
	}
	for i := 0; i < len(want); i++ {
		if attn[i] != 1 {
			t.Errorf("attn[%d] = %d, want 1", i, attn[i])
		}
	}

	// Token type IDs flip to 1 at the hypothesis segment.
	for i := 0; i < 4; i++ {
		if typeIDs[i] != 0 {
			t.Errorf("typeIDs[%d] = %d, want 0", i, typeIDs[i])
		}
	}
	for i := 4; i < 7; i++ {
		if typeIDs[i] != 1 {
			t.Errorf("typeIDs[%d] = %d, want 1", i, typeIDs[i])
		}
	}
}

func TestSoftmax(t *testing.T) {
	probs := softmax([]float32{2, 1, 0})
	var sum float64
	for _, p := range probs {
		sum += p
	}
	if sum < 0.999 || sum > 1.001 {
		t.Errorf("softmax sum = %v, want 1", sum)
	}
	if !(probs[0] > probs[1] && probs[1] > probs[2]) {
		t.Errorf("softmax order not preserved: %v", probs)
	}
}

func TestCosine(t *testing.T) {
	a := []float32{1, 0, 0}
	b := []float32{0, 1, 0}
	if got := Cosine(a, a); got < 0.999 {
		t.Errorf("cosine(a,a) = %v, want 1", got)
	}
	if got := Cosine(a, b); got != 0 {
		t.Errorf("cosine(a,b) = %v, want 0", got)
	}
	if got := Cosine(a, []float32{1, 0}); got != 0 {
		t.Errorf("mismatched lengths should score 0, got %v", got)
	}
}

func TestNormalize(t *testing.T) {
	v := []float32{3, 4}
	normalize(v)
	if got := Cosine(v, v); got < 0.999 || got > 1.001 {
		t.Errorf("normalized self-similarity = %v, want 1", got)
	}
}
