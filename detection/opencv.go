//go:build opencv

package detection

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"
	"unsafe"

	"go.uber.org/zap"
	"gocv.io/x/gocv"
)

// openCVDetector runs the same YOLOv5 ONNX export through the OpenCV DNN module.
type openCVDetector struct {
	mu     sync.Mutex
	cfg    DetectorConfig
	labels []string
	net    gocv.Net
	logger *zap.Logger
}

func newOpenCVDetector(cfg DetectorConfig, labels []string, logger *zap.Logger) (Detector, error) {
	if _, err := os.Stat(cfg.ModelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrNoModel, cfg.ModelPath)
	}
	net := gocv.ReadNetFromONNX(cfg.ModelPath)
	if net.Empty() {
		return nil, fmt.Errorf("failed to load network from %s", cfg.ModelPath)
	}
	errBackend := net.SetPreferableBackend(gocv.NetBackendDefault)
	errTarget := net.SetPreferableTarget(gocv.NetTargetCPU)
	if errBackend != nil || errTarget != nil {
		net.Close()
		return nil, errors.Join(errBackend, errTarget)
	}
	logger.Info("opencv network loaded", zap.String("model", cfg.ModelPath))
	return &openCVDetector{cfg: cfg, labels: labels, net: net, logger: logger}, nil
}

func (d *openCVDetector) Detect(ctx context.Context, img image.Image) (Set, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	size := d.cfg.InputSize
	data, lb := letterboxTensor(img, size)
	raw := unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), len(data)*4)
	blob, err := gocv.NewMatWithSizesFromBytes([]int{1, 3, size, size}, gocv.MatTypeCV32F, raw)
	if err != nil {
		return nil, fmt.Errorf("create blob: %w", err)
	}
	defer blob.Close()

	d.net.SetInput(blob, "")
	out := d.net.Forward("")
	defer out.Close()
	if out.Empty() {
		return nil, errors.New("opencv forward returned no output")
	}
	values, err := out.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("read output: %w", err)
	}
	cols := 5 + len(d.labels)
	rows := len(values) / cols
	set := decodeYOLOv5(values, rows, cols, d.labels, lb, img.Bounds(), optionsFrom(d.cfg))
	d.logger.Debug("inference finished", zap.Int("detections", len(set)))
	return set, nil
}

func (d *openCVDetector) ModelID() string {
	return filepath.Base(d.cfg.ModelPath)
}

func (d *openCVDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.net.Close()
}
