package nli

// Engine bundles the classifier and embedder loaded from one bundle
// directory. A nil Engine means model-based verification is unavailable and
// callers should fall back to lexical scoring.
type Engine struct {
	model    *Model
	embedder *Embedder
}

// LoadEngine loads both models from an installed bundle.
func LoadEngine(bundleDir string, seqLen int) (*Engine, error) {
	model, err := LoadModel(bundleDir, seqLen)
	if err != nil {
		return nil, err
	}
	embedder, err := LoadEmbedder(bundleDir, seqLen)
	if err != nil {
		return nil, err
	}
	return &Engine{model: model, embedder: embedder}, nil
}

func (e *Engine) Ready() bool {
	return e != nil && e.model != nil && e.embedder != nil
}

func (e *Engine) Classify(premise, hypothesis string) (*Verdict, error) {
	return e.model.Classify(premise, hypothesis)
}

func (e *Engine) Embed(text string) ([]float32, error) {
	return e.embedder.Embed(text)
}
