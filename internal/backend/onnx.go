package backend

import (
	"context"
	"fmt"
	"math"
	"sync"

	log "github.com/sirupsen/logrus"
	ort "github.com/yalue/onnxruntime_go"

	"remsort/internal/identify"
)

var ortEnv struct {
	once sync.Once
	err  error
}

// initORT initializes the ONNX Runtime environment. Safe to call multiple
// times; only the first call has any effect.
func initORT(libPath string) error {
	ortEnv.once.Do(func() {
		if libPath != "" {
			ort.SetSharedLibraryPath(libPath)
		}
		ortEnv.err = ort.InitializeEnvironment()
	})
	return ortEnv.err
}

// ONNXBackend classifies documents with a local fine-tuned BERT-style
// sequence classifier exported to ONNX. The output head must have one logit
// per category, in the catalog order at initialization time.
type ONNXBackend struct {
	session    *ort.DynamicAdvancedSession
	tokenizer  *wordpieceTokenizer
	inputNames []string
	classes    []string
	maxTokens  int

	mu sync.Mutex
}

// NewONNXBackend loads the model and vocabulary from disk. libraryPath
// points at the onnxruntime shared library; empty means the platform
// default lookup.
func NewONNXBackend(modelPath, vocabPath, libraryPath string, catalog identify.Catalog, maxTokens int) (*ONNXBackend, error) {
	if modelPath == "" || vocabPath == "" {
		return nil, fmt.Errorf("onnx backend: model_path and vocab_path must be set")
	}
	if err := initORT(libraryPath); err != nil {
		return nil, fmt.Errorf("onnx backend: failed to initialize runtime: %w", err)
	}

	v, err := loadVocab(vocabPath)
	if err != nil {
		return nil, err
	}

	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, fmt.Errorf("onnx backend: failed to read model info: %w", err)
	}
	inputNames := make([]string, len(inputs))
	for i, inp := range inputs {
		inputNames[i] = inp.Name
	}
	if len(outputs) == 0 {
		return nil, fmt.Errorf("onnx backend: model has no outputs")
	}

	cats := catalog.Categories()
	classes := make([]string, len(cats))
	for i, c := range cats {
		classes[i] = c.Name
	}

	dims := outputs[0].Dimensions
	if len(dims) == 2 && dims[1] > 0 && int(dims[1]) != len(classes) {
		return nil, fmt.Errorf("onnx backend: model has %d output classes, catalog has %d categories", dims[1], len(classes))
	}

	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("onnx backend: failed to create session options: %w", err)
	}
	defer opts.Destroy()
	opts.SetIntraOpNumThreads(4)
	opts.SetInterOpNumThreads(1)

	session, err := ort.NewDynamicAdvancedSession(modelPath, inputNames, []string{outputs[0].Name}, opts)
	if err != nil {
		return nil, fmt.Errorf("onnx backend: failed to create session: %w", err)
	}

	return &ONNXBackend{
		session:    session,
		tokenizer:  &wordpieceTokenizer{vocab: v},
		inputNames: inputNames,
		classes:    classes,
		maxTokens:  maxTokens,
	}, nil
}

func (b *ONNXBackend) Name() string { return "onnx" }

func (b *ONNXBackend) Identify(ctx context.Context, text string) (identify.Result, error) {
	logits, err := b.infer(text)
	if err != nil {
		log.Errorf("onnx backend inference failed: %v", err)
		return identify.NoOpinion(), nil
	}
	if len(logits) != len(b.classes) {
		log.Errorf("onnx backend returned %d logits for %d classes", len(logits), len(b.classes))
		return identify.NoOpinion(), nil
	}

	probs := softmax(logits)
	bestIdx := 0
	for i := range probs {
		if probs[i] > probs[bestIdx] {
			bestIdx = i
		}
	}

	res := identify.Result{
		Category:   b.classes[bestIdx],
		Confidence: probs[bestIdx] * 100,
		Source:     identify.SourceExternalModel,
		Rationale:  "local model prediction",
	}
	return res.Normalize(), nil
}

func (b *ONNXBackend) infer(text string) ([]float32, error) {
	inputIDs, attentionMask := b.tokenizer.encode(text, b.maxTokens)
	shape := ort.NewShape(1, int64(b.maxTokens))

	inputs := make([]ort.Value, 0, len(b.inputNames))
	defer func() {
		for _, in := range inputs {
			in.Destroy()
		}
	}()
	for _, name := range b.inputNames {
		var data []int64
		switch name {
		case "input_ids":
			data = inputIDs
		case "attention_mask":
			data = attentionMask
		default:
			// token_type_ids and any other auxiliary input stay zeroed.
			data = make([]int64, b.maxTokens)
		}
		tensor, err := ort.NewTensor(shape, data)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s tensor: %w", name, err)
		}
		inputs = append(inputs, tensor)
	}

	tOut, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(len(b.classes))))
	if err != nil {
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}
	defer tOut.Destroy()

	// onnxruntime sessions are not safe for concurrent Run calls.
	b.mu.Lock()
	err = b.session.Run(inputs, []ort.Value{tOut})
	b.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("session run failed: %w", err)
	}

	out := tOut.GetData()
	logits := make([]float32, len(out))
	copy(logits, out)
	return logits, nil
}

// Close releases the session. Taking the mutex keeps Destroy from racing a
// Run still executing in another goroutine.
func (b *ONNXBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.session.Destroy()
}

func softmax(logits []float32) []float64 {
	maxLogit := logits[0]
	for _, l := range logits[1:] {
		if l > maxLogit {
			maxLogit = l
		}
	}
	var sum float64
	probs := make([]float64, len(logits))
	for i, l := range logits {
		probs[i] = math.Exp(float64(l - maxLogit))
		sum += probs[i]
	}
	for i := range probs {
		probs[i] /= sum
	}
	return probs
}
