package nli

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// Embedder wraps the ONNX sentence embedding session. Embeddings are mean
// pooled over attended tokens and L2 normalized, so cosine similarity reduces
// to a dot product.
type Embedder struct {
	session   *ort.AdvancedSession
	tokenizer *WordPieceTokenizer
	seqLen    int
	hidden    int

	inputIDs      *ort.Tensor[int64]
	attentionMask *ort.Tensor[int64]
	output        *ort.Tensor[float32]

	mu sync.Mutex
}

// LoadEmbedder initializes the embedding session from an installed bundle.
// The hidden size comes from the bundle's meta.yaml.
func LoadEmbedder(bundleDir string, seqLen int) (*Embedder, error) {
	if bundleDir == "" {
		return nil, errors.New("bundleDir is empty")
	}
	if seqLen <= 0 {
		seqLen = 256
	}

	if err := initRuntime(bundleDir); err != nil {
		return nil, err
	}

	modelPath := filepath.Join(bundleDir, "embedder.onnx")
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("embedder file missing at %s: %w", modelPath, err)
	}

	meta, err := loadMeta(bundleDir)
	if err != nil {
		return nil, fmt.Errorf("load bundle meta: %w", err)
	}

	tokenizer, err := LoadWordPieceTokenizer(filepath.Join(bundleDir, "tokenizer", "vocab.txt"))
	if err != nil {
		return nil, fmt.Errorf("load tokenizer: %w", err)
	}

	inputShape := ort.NewShape(1, int64(seqLen))
	inputIDs, err := ort.NewEmptyTensor[int64](inputShape)
	if err != nil {
		return nil, fmt.Errorf("allocate input_ids tensor: %w", err)
	}
	attnMask, err := ort.NewEmptyTensor[int64](inputShape)
	if err != nil {
		return nil, fmt.Errorf("allocate attention_mask tensor: %w", err)
	}
	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(seqLen), int64(meta.HiddenSize)))
	if err != nil {
		return nil, fmt.Errorf("allocate output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(
		modelPath,
		[]string{"input_ids", "attention_mask"},
		[]string{"last_hidden_state"},
		[]ort.Value{inputIDs, attnMask},
		[]ort.Value{output},
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("create embedder session: %w", err)
	}

	return &Embedder{
		session:       session,
		tokenizer:     tokenizer,
		seqLen:        seqLen,
		hidden:        meta.HiddenSize,
		inputIDs:      inputIDs,
		attentionMask: attnMask,
		output:        output,
	}, nil
}

// Embed returns a normalized embedding vector for the text.
func (e *Embedder) Embed(text string) ([]float32, error) {
	if e == nil || e.session == nil || e.tokenizer == nil {
		return nil, errors.New("embedder not initialized")
	}

	ids, attn := e.tokenizer.Encode(text, e.seqLen)

	e.mu.Lock()
	defer e.mu.Unlock()

	copy(e.inputIDs.GetData(), ids)
	copy(e.attentionMask.GetData(), attn)

	if err := e.session.Run(); err != nil {
		return nil, fmt.Errorf("onnx run: %w", err)
	}

	hidden := e.output.GetData()
	vec := make([]float32, e.hidden)
	var count float32
	for tok := 0; tok < e.seqLen; tok++ {
		if attn[tok] == 0 {
			continue
		}
		base := tok * e.hidden
		for d := 0; d < e.hidden; d++ {
			vec[d] += hidden[base+d]
		}
		count++
	}
	if count > 0 {
		for d := range vec {
			vec[d] /= count
		}
	}

	normalize(vec)
	return vec, nil
}

func normalize(vec []float32) {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		return
	}
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
}

// Cosine returns the cosine similarity of two normalized vectors.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}
