package detection

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
	"go.uber.org/zap"
)

const (
	ortInputName  = "images"
	ortOutputName = "output0"
)

// OrtDetector runs a YOLOv5 ONNX export through onnxruntime. The session and
// its tensors are allocated once; Detect calls are serialised.
type OrtDetector struct {
	mu      sync.Mutex
	cfg     DetectorConfig
	labels  []string
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
	rows    int
	cols    int
	ownsEnv bool
	logger  *zap.Logger
}

// NewOrtDetector initialises the onnxruntime environment and loads the model.
func NewOrtDetector(cfg DetectorConfig, labels []string, logger *zap.Logger) (*OrtDetector, error) {
	if _, err := os.Stat(cfg.ModelPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNoModel, cfg.ModelPath)
		}
		return nil, fmt.Errorf("stat model: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &OrtDetector{cfg: cfg, labels: labels, logger: logger}
	if !ort.IsInitialized() {
		ort.SetSharedLibraryPath(sharedLibraryPath(cfg.SharedLibraryPath))
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("initialize onnxruntime: %w", err)
		}
		d.ownsEnv = true
	}
	if err := d.initSession(); err != nil {
		d.Close()
		return nil, err
	}
	logger.Info("onnx model loaded",
		zap.String("model", cfg.ModelPath),
		zap.Int("inputSize", cfg.InputSize),
		zap.Int("classes", d.cols-5))
	return d, nil
}

func (d *OrtDetector) initSession() error {
	size := d.cfg.InputSize
	inputName, outputName := ortInputName, ortOutputName
	d.rows, d.cols = yoloRows(size), 5+len(d.labels)

	inputs, outputs, err := ort.GetInputOutputInfo(d.cfg.ModelPath)
	if err != nil {
		return fmt.Errorf("inspect model: %w", err)
	}
	if len(inputs) > 0 {
		inputName = inputs[0].Name
	}
	if len(outputs) > 0 {
		outputName = outputs[0].Name
		dims := outputs[0].Dimensions
		if len(dims) == 3 && dims[1] > 0 && dims[2] > 0 {
			d.rows, d.cols = int(dims[1]), int(dims[2])
		}
	}

	d.input, err = ort.NewTensor(ort.NewShape(1, 3, int64(size), int64(size)), make([]float32, 3*size*size))
	if err != nil {
		return fmt.Errorf("create input tensor: %w", err)
	}
	d.output, err = ort.NewEmptyTensor[float32](ort.NewShape(1, int64(d.rows), int64(d.cols)))
	if err != nil {
		return fmt.Errorf("create output tensor: %w", err)
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		return fmt.Errorf("session options: %w", err)
	}
	defer options.Destroy()
	if d.cfg.IntraOpThreads > 0 {
		if err := options.SetIntraOpNumThreads(d.cfg.IntraOpThreads); err != nil {
			return fmt.Errorf("set intra-op threads: %w", err)
		}
	}

	d.session, err = ort.NewAdvancedSession(
		d.cfg.ModelPath,
		[]string{inputName},
		[]string{outputName},
		[]ort.Value{d.input},
		[]ort.Value{d.output},
		options,
	)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// Detect runs one inference over img.
func (d *OrtDetector) Detect(ctx context.Context, img image.Image) (Set, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.session == nil {
		return nil, errors.New("onnx detector is closed")
	}
	data, lb := letterboxTensor(img, d.cfg.InputSize)
	copy(d.input.GetData(), data)
	if err := d.session.Run(); err != nil {
		return nil, fmt.Errorf("run inference: %w", err)
	}
	set := decodeYOLOv5(d.output.GetData(), d.rows, d.cols, d.labels, lb, img.Bounds(), optionsFrom(d.cfg))
	d.logger.Debug("inference finished", zap.Int("detections", len(set)))
	return set, nil
}

// ModelID returns the model file name.
func (d *OrtDetector) ModelID() string {
	return filepath.Base(d.cfg.ModelPath)
}

// Close releases the session, tensors and, if this detector created it, the environment.
func (d *OrtDetector) Close() error {
	if d == nil {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	var errs []error
	if d.session != nil {
		errs = append(errs, d.session.Destroy())
		d.session = nil
	}
	if d.input != nil {
		errs = append(errs, d.input.Destroy())
		d.input = nil
	}
	if d.output != nil {
		errs = append(errs, d.output.Destroy())
		d.output = nil
	}
	if d.ownsEnv {
		errs = append(errs, ort.DestroyEnvironment())
		d.ownsEnv = false
	}
	return errors.Join(errs...)
}

func sharedLibraryPath(configured string) string {
	if configured != "" {
		return configured
	}
	switch runtime.GOOS {
	case "windows":
		return "./third_party/onnxruntime.dll"
	case "darwin":
		if runtime.GOARCH == "arm64" {
			return "./third_party/onnxruntime_arm64.dylib"
		}
		return "./third_party/onnxruntime.dylib"
	default:
		if runtime.GOARCH == "arm64" {
			return "./third_party/onnxruntime_arm64.so"
		}
		return "./third_party/onnxruntime.so"
	}
}
