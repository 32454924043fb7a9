package ai

import (
	"context"
	"fmt"
	"math"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// ONNXEmbedder runs a sentence-transformers export (all-MiniLM-L6-v2) in process.
// Vectors are mean pooled over the attention mask and L2 normalised.
type ONNXEmbedder struct {
	mu sync.Mutex

	modelPath     string
	tokenizerPath string
	libPath       string
	dim           int
	maxTokens     int

	tokenizer   *Tokenizer
	session     *ort.DynamicAdvancedSession
	inputNames  []string
	outputNames []string
	inited      bool
}

func NewONNXEmbedder(modelPath, tokenizerPath, onnxLibPath string, dim, maxTokens int) *ONNXEmbedder {
	if dim <= 0 {
		dim = 384
	}
	if maxTokens <= 0 {
		maxTokens = 256
	}
	return &ONNXEmbedder{
		modelPath:     modelPath,
		tokenizerPath: tokenizerPath,
		libPath:       onnxLibPath,
		dim:           dim,
		maxTokens:     maxTokens,
	}
}

func (e *ONNXEmbedder) Provider() string { return "onnx" }

func (e *ONNXEmbedder) Model() string { return e.modelPath }

// initLocked loads the runtime, tokenizer and session. Caller holds e.mu.
func (e *ONNXEmbedder) initLocked() error {
	if e.inited {
		return nil
	}

	if e.libPath != "" {
		ort.SetSharedLibraryPath(e.libPath)
	}
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return fmt.Errorf("onnx init environment: %w", err)
		}
	}

	tok, err := LoadTokenizer(e.tokenizerPath, e.maxTokens)
	if err != nil {
		return err
	}
	e.tokenizer = tok

	inputs, outputs, err := ort.GetInputOutputInfo(e.modelPath)
	if err != nil {
		return fmt.Errorf("onnx get input/output info: %w", err)
	}
	if len(inputs) == 0 || len(outputs) == 0 {
		return fmt.Errorf("onnx model has no inputs or outputs")
	}
	e.inputNames = make([]string, len(inputs))
	for i := range inputs {
		e.inputNames[i] = inputs[i].Name
	}
	// token embeddings come first in sentence-transformers exports
	e.outputNames = []string{outputs[0].Name}

	session, err := ort.NewDynamicAdvancedSession(e.modelPath, e.inputNames, e.outputNames, nil)
	if err != nil {
		return fmt.Errorf("onnx new session: %w", err)
	}
	e.session = session
	e.inited = true
	return nil
}

func (e *ONNXEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.initLocked(); err != nil {
		return nil, err
	}

	encoded := make([][]int64, len(texts))
	seqLen := 0
	for i, t := range texts {
		ids, err := e.tokenizer.Encode(t)
		if err != nil {
			return nil, err
		}
		encoded[i] = ids
		if len(encoded[i]) > seqLen {
			seqLen = len(encoded[i])
		}
	}

	batch := len(texts)
	ids := make([]int64, batch*seqLen)
	mask := make([]int64, batch*seqLen)
	types := make([]int64, batch*seqLen)
	for i, seq := range encoded {
		for j := 0; j < seqLen; j++ {
			pos := i*seqLen + j
			if j < len(seq) {
				ids[pos] = seq[j]
				mask[pos] = 1
			} else {
				ids[pos] = e.tokenizer.pad
			}
		}
	}

	shape := ort.NewShape(int64(batch), int64(seqLen))
	byName := map[string][]int64{
		"input_ids":      ids,
		"attention_mask": mask,
		"token_type_ids": types,
	}
	inputs := make([]ort.Value, 0, len(e.inputNames))
	defer func() {
		for _, v := range inputs {
			v.Destroy()
		}
	}()
	for _, name := range e.inputNames {
		data, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("onnx model input %q is not supported", name)
		}
		t, err := ort.NewTensor(shape, data)
		if err != nil {
			return nil, fmt.Errorf("onnx new input tensor: %w", err)
		}
		inputs = append(inputs, t)
	}

	output, err := ort.NewEmptyTensor[float32](ort.NewShape(int64(batch), int64(seqLen), int64(e.dim)))
	if err != nil {
		return nil, fmt.Errorf("onnx new output tensor: %w", err)
	}
	defer output.Destroy()

	if err := e.session.Run(inputs, []ort.Value{output}); err != nil {
		return nil, fmt.Errorf("onnx run: %w", err)
	}

	return meanPool(output.GetData(), mask, batch, seqLen, e.dim), nil
}

// Close releases the session. The embedder can be lazily reopened afterwards.
func (e *ONNXEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session != nil {
		if err := e.session.Destroy(); err != nil {
			return err
		}
		e.session = nil
	}
	e.inited = false
	return nil
}

func meanPool(hidden []float32, mask []int64, batch, seqLen, dim int) [][]float32 {
	out := make([][]float32, batch)
	for b := 0; b < batch; b++ {
		vec := make([]float32, dim)
		var count float32
		for s := 0; s < seqLen; s++ {
			if mask[b*seqLen+s] == 0 {
				continue
			}
			count++
			base := (b*seqLen + s) * dim
			for d := 0; d < dim; d++ {
				vec[d] += hidden[base+d]
			}
		}
		if count > 0 {
			for d := range vec {
				vec[d] /= count
			}
		}
		normalize(vec)
		out[b] = vec
	}
	return out
}

func normalize(vec []float32) {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	n := float32(math.Sqrt(sum))
	for i := range vec {
		vec[i] /= n
	}
}
