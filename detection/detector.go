package detection

import (
	"context"
	"fmt"
	"image"

	"go.uber.org/zap"
)

// Detector exposes the minimal surface required by the pipeline.
type Detector interface {
	Detect(ctx context.Context, img image.Image) (Set, error)
	Close() error
	ModelID() string
}

// NewDetector builds the backend selected in cfg. The model is loaded here,
// once, and stays resident until Close.
func NewDetector(cfg DetectorConfig, logger *zap.Logger) (Detector, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	labels, err := LoadLabels(cfg.LabelsPath)
	if err != nil {
		return nil, err
	}
	var det Detector
	switch cfg.Backend {
	case BackendONNXRuntime, "":
		d, err := NewOrtDetector(cfg, labels, logger)
		if err != nil {
			return nil, err
		}
		det = d
	case BackendRemote:
		d, err := NewRemoteDetector(cfg, logger)
		if err != nil {
			return nil, err
		}
		det = d
	case BackendOpenCV:
		d, err := newOpenCVDetector(cfg, labels, logger)
		if err != nil {
			return nil, err
		}
		det = d
	default:
		return nil, fmt.Errorf("unsupported detector backend: %s", cfg.Backend)
	}
	logger.Info("detector ready", zap.String("backend", string(cfg.Backend)), zap.String("model", det.ModelID()))
	return det, nil
}

// yoloOptions are the thresholds applied while decoding raw model output.
type yoloOptions struct {
	conf   float64
	iou    float64
	maxDet int
}

func optionsFrom(cfg DetectorConfig) yoloOptions {
	return yoloOptions{conf: cfg.ConfThreshold, iou: cfg.IoUThreshold, maxDet: cfg.MaxDetections}
}

// yoloRows is the number of candidate boxes a stride 8/16/32 YOLOv5 head emits
// for a square input of the given size.
func yoloRows(size int) int {
	rows := 0
	for _, stride := range []int{8, 16, 32} {
		g := size / stride
		rows += 3 * g * g
	}
	return rows
}
