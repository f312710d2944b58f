package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"yashubustudio/objectlens/detection"
)

var (
	// ErrNoSession is returned when a download is requested before any upload.
	ErrNoSession = errors.New("no image has been uploaded yet")
	// ErrNoDestination is returned when the save dialog yields no path.
	ErrNoDestination = errors.New("no destination selected")
)

// Processor runs detection for one image path.
type Processor interface {
	Process(ctx context.Context, path string) (detection.Result, error)
}

// Exporter re-encodes cached annotated images.
type Exporter interface {
	HasCached(name string) bool
	Export(name string, w io.Writer, format detection.Format) error
}

// Session is the state of the most recent upload.
type Session struct {
	ID       string
	Filename string
	Result   detection.Result
}

// Controller holds the single-user session and routes UI actions to the pipeline.
type Controller struct {
	proc   Processor
	store  Exporter
	logger *zap.Logger

	mu      sync.Mutex
	session *Session
}

// NewController wires the pipeline and result store behind the UI actions.
func NewController(proc Processor, store Exporter, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{proc: proc, store: store, logger: logger}
}

// Current returns a copy of the active session.
func (c *Controller) Current() (Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return Session{}, false
	}
	return *c.session, true
}

// Upload replaces the session with path's filename and runs the pipeline.
// A cached image whose CSV is gone returns the session together with
// detection.ErrCSVMissing.
func (c *Controller) Upload(ctx context.Context, path string) (Session, error) {
	sess := Session{ID: uuid.NewString(), Filename: filepath.Base(path)}
	c.mu.Lock()
	c.session = &sess
	c.mu.Unlock()

	log := c.logger.With(zap.String("session", sess.ID), zap.String("image", sess.Filename))
	log.Info("upload selected", zap.String("path", path))

	res, err := c.proc.Process(ctx, path)
	sess.Result = res
	c.mu.Lock()
	c.session = &sess
	c.mu.Unlock()

	switch {
	case err == nil:
		log.Info("upload processed", zap.Bool("cached", res.Cached), zap.Int("detections", len(res.Set)))
	case errors.Is(err, detection.ErrCSVMissing):
		log.Warn("cached image has no detail csv", zap.String("csv", res.CSVPath))
	default:
		log.Error("processing failed", zap.Error(err))
	}
	return sess, err
}

// DownloadReady reports whether the current session has an annotated image to export.
func (c *Controller) DownloadReady() error {
	sess, ok := c.Current()
	if !ok {
		return ErrNoSession
	}
	if !c.store.HasCached(sess.Filename) {
		return fmt.Errorf("%w: %s", detection.ErrNotCached, sess.Filename)
	}
	return nil
}

// Export writes the session's annotated image to w, encoded by destPath's extension.
// Nothing is written unless every check passes.
func (c *Controller) Export(w io.Writer, destPath string) error {
	sess, ok := c.Current()
	if !ok {
		return ErrNoSession
	}
	if destPath == "" {
		return ErrNoDestination
	}
	format, err := detection.FormatFromPath(destPath)
	if err != nil {
		return err
	}
	if err := c.store.Export(sess.Filename, w, format); err != nil {
		return err
	}
	c.logger.Info("annotated image exported",
		zap.String("session", sess.ID),
		zap.String("image", sess.Filename),
		zap.String("dest", destPath),
		zap.String("format", string(format)))
	return nil
}
