package detection

import (
	"context"
	"errors"
	"fmt"
	"image"
	"path/filepath"

	"go.uber.org/zap"
)

// Result is the outcome of processing one image.
type Result struct {
	Name      string
	Image     image.Image
	Set       Set
	Cached    bool
	CSVPath   string
	ImagePath string
}

// Pipeline orchestrates the detector, annotator and result store.
type Pipeline struct {
	detector Detector
	store    *Store
	style    Style
	logger   *zap.Logger
}

// NewPipeline wires an owned detector and store together.
func NewPipeline(detector Detector, store *Store, style Style, logger *zap.Logger) (*Pipeline, error) {
	if detector == nil {
		return nil, errors.New("detector is required")
	}
	if store == nil {
		return nil, errors.New("store is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{detector: detector, store: store, style: style, logger: logger}, nil
}

// Store returns the backing result store.
func (p *Pipeline) Store() *Store {
	return p.store
}

// Close releases the detector.
func (p *Pipeline) Close() error {
	return p.detector.Close()
}

// Process returns the cached result for path's filename if one exists;
// otherwise it detects, writes the CSV, annotates and writes the image, in
// that order. A cached image without CSV yields a result plus ErrCSVMissing.
func (p *Pipeline) Process(ctx context.Context, path string) (Result, error) {
	name := filepath.Base(path)
	res := Result{
		Name:      name,
		CSVPath:   p.store.CSVPath(name),
		ImagePath: p.store.ImagePath(name),
	}
	log := p.logger.With(zap.String("image", name))

	if p.store.HasCached(name) {
		log.Info("cache hit", zap.String("path", res.ImagePath))
		img, set, err := p.store.LoadCached(name)
		if img == nil {
			return res, err
		}
		res.Image, res.Set, res.Cached = img, set, true
		if err != nil {
			log.Warn("cached result incomplete", zap.Error(err))
		}
		return res, err
	}

	log.Info("cache miss, running detector", zap.String("model", p.detector.ModelID()))
	src, err := DecodeFile(path)
	if err != nil {
		return res, fmt.Errorf("open image: %w", err)
	}
	set, err := p.detector.Detect(ctx, src)
	if err != nil {
		return res, fmt.Errorf("detect: %w", err)
	}
	log.Info("detection finished", zap.Int("detections", len(set)))

	if _, err := p.store.SaveCSV(name, set); err != nil {
		return res, err
	}
	annotated := Annotate(src, set, p.style)
	if _, err := p.store.SaveImage(name, annotated); err != nil {
		return res, err
	}
	res.Image, res.Set = annotated, set
	return res, nil
}
