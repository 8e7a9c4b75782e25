// Package emb runs the two towers of a CLIP-style ONNX checkpoint: a text
// encoder fed tokenized prompts and an image encoder fed preprocessed pixels.
// Both towers project into the same embedding space.
package emb

import (
	"errors"
	"fmt"

	ort "github.com/yalue/onnxruntime_go"
)

// Input/output names of CLIP towers exported with projection heads.
var (
	textInputNames  = []string{"input_ids", "attention_mask"}
	textOutputNames = []string{"text_embeds"}

	imageInputNames  = []string{"pixel_values"}
	imageOutputNames = []string{"image_embeds"}
)

// Config carries the paths and limits needed to initialize an Encoder.
type Config struct {
	OrtDLL         string
	TextModelPath  string
	ImageModelPath string
	TokenizerPath  string
	MaxSeqLen      int
	ImageSize      int
	// Device requests an execution provider: "cuda", "coreml" or "cpu".
	// Empty or "auto" probes accelerators in that order; CPU always works.
	Device string
}

// Encoder holds the loaded ONNX sessions and tokenizer. Safe for concurrent
// use after Init: sessions are read-only and onnxruntime Run is thread-safe.
type Encoder struct {
	cfg    Config
	tok    *clipTokenizer
	text   *ort.DynamicAdvancedSession
	image  *ort.DynamicAdvancedSession
	device string
}

// Init loads the tokenizer and both ONNX sessions. Weights are read exactly
// once; encode calls never reload them.
func (e *Encoder) Init(cfg Config) error {
	if cfg.TextModelPath == "" || cfg.ImageModelPath == "" {
		return errors.New("text and image model paths are required")
	}
	if cfg.MaxSeqLen <= 0 {
		cfg.MaxSeqLen = 77
	}
	if cfg.ImageSize <= 0 {
		cfg.ImageSize = 224
	}
	if !ort.IsInitialized() {
		if cfg.OrtDLL != "" {
			ort.SetSharedLibraryPath(cfg.OrtDLL)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			return fmt.Errorf("initialize onnxruntime: %w", err)
		}
	}
	tok, err := newClipTokenizer(cfg.TokenizerPath, cfg.MaxSeqLen)
	if err != nil {
		return err
	}
	opts, err := ort.NewSessionOptions()
	if err != nil {
		return fmt.Errorf("session options: %w", err)
	}
	defer opts.Destroy()
	device := applyDevice(opts, cfg.Device)

	text, err := ort.NewDynamicAdvancedSession(cfg.TextModelPath, textInputNames, textOutputNames, opts)
	if err != nil {
		return fmt.Errorf("load text encoder: %w", err)
	}
	image, err := ort.NewDynamicAdvancedSession(cfg.ImageModelPath, imageInputNames, imageOutputNames, opts)
	if err != nil {
		text.Destroy()
		return fmt.Errorf("load image encoder: %w", err)
	}

	e.cfg = cfg
	e.tok = tok
	e.text = text
	e.image = image
	e.device = device
	return nil
}

// applyDevice appends the best available execution provider to the session
// options and reports which one stuck. Probing never fails: if no accelerator
// attaches, the default CPU provider remains.
func applyDevice(opts *ort.SessionOptions, device string) string {
	candidates := []string{"cuda", "coreml"}
	switch device {
	case "", "auto":
	case "cpu":
		return "cpu"
	default:
		candidates = []string{device}
	}
	for _, cand := range candidates {
		switch cand {
		case "cuda":
			cudaOpts, err := ort.NewCUDAProviderOptions()
			if err != nil {
				continue
			}
			err = opts.AppendExecutionProviderCUDA(cudaOpts)
			cudaOpts.Destroy()
			if err == nil {
				return "cuda"
			}
		case "coreml":
			if err := opts.AppendExecutionProviderCoreML(0); err == nil {
				return "coreml"
			}
		}
	}
	return "cpu"
}

// Device reports the execution provider selected during Init.
func (e *Encoder) Device() string {
	return e.device
}

// Close releases both ONNX sessions. The shared onnxruntime environment is
// left initialized for other encoders in the process.
func (e *Encoder) Close() {
	if e.text != nil {
		e.text.Destroy()
		e.text = nil
	}
	if e.image != nil {
		e.image.Destroy()
		e.image = nil
	}
	e.tok = nil
}

// EncodeText embeds a single prompt.
func (e *Encoder) EncodeText(text string) ([]float32, error) {
	if e.text == nil {
		return nil, errors.New("encoder is not initialized")
	}
	ids, mask, err := e.tok.encode(text)
	if err != nil {
		return nil, err
	}
	shape := ort.NewShape(1, int64(e.cfg.MaxSeqLen))
	idsT, err := ort.NewTensor(shape, ids)
	if err != nil {
		return nil, fmt.Errorf("input_ids tensor: %w", err)
	}
	defer idsT.Destroy()
	maskT, err := ort.NewTensor(shape, mask)
	if err != nil {
		return nil, fmt.Errorf("attention_mask tensor: %w", err)
	}
	defer maskT.Destroy()

	outputs := []ort.Value{nil}
	if err := e.text.Run([]ort.Value{idsT, maskT}, outputs); err != nil {
		return nil, fmt.Errorf("text encoder run: %w", err)
	}
	defer outputs[0].Destroy()
	return tensorVector(outputs[0])
}

// EncodeImage embeds one image file.
func (e *Encoder) EncodeImage(path string) ([]float32, error) {
	if e.image == nil {
		return nil, errors.New("encoder is not initialized")
	}
	size := e.cfg.ImageSize
	pixels, err := pixelTensor(path, size)
	if err != nil {
		return nil, err
	}
	t, err := ort.NewTensor(ort.NewShape(1, 3, int64(size), int64(size)), pixels)
	if err != nil {
		return nil, fmt.Errorf("pixel_values tensor: %w", err)
	}
	defer t.Destroy()

	outputs := []ort.Value{nil}
	if err := e.image.Run([]ort.Value{t}, outputs); err != nil {
		return nil, fmt.Errorf("image encoder run: %w", err)
	}
	defer outputs[0].Destroy()
	return tensorVector(outputs[0])
}

func tensorVector(v ort.Value) ([]float32, error) {
	t, ok := v.(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("unexpected output tensor type %T", v)
	}
	data := t.GetData()
	out := make([]float32, len(data))
	copy(out, data)
	return out, nil
}
