package detection

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// RemoteDetector posts the image to an HTTP inference service that answers
// with {"detections": [{"name", "confidence", "xmin", "ymin", "xmax", "ymax"}]}.
type RemoteDetector struct {
	endpoint string
	client   *resty.Client
	logger   *zap.Logger
}

type remoteResponse struct {
	Detections Set    `json:"detections"`
	Error      string `json:"error,omitempty"`
}

// NewRemoteDetector validates the endpoint and prepares the HTTP client.
func NewRemoteDetector(cfg DetectorConfig, logger *zap.Logger) (*RemoteDetector, error) {
	if cfg.RemoteURL == "" {
		return nil, errors.New("remote detector requires remoteURL")
	}
	if _, err := url.ParseRequestURI(cfg.RemoteURL); err != nil {
		return nil, fmt.Errorf("invalid remoteURL: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := time.Duration(cfg.RemoteTimeout) * time.Second
	return &RemoteDetector{
		endpoint: cfg.RemoteURL,
		client:   resty.New().SetTimeout(timeout),
		logger:   logger,
	}, nil
}

// Detect uploads img as PNG and decodes the service response.
func (r *RemoteDetector) Detect(ctx context.Context, img image.Image) (Set, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode upload: %w", err)
	}
	var out remoteResponse
	resp, err := r.client.R().
		SetContext(ctx).
		SetFileReader("file", "image.png", &buf).
		SetResult(&out).
		SetError(&out).
		Post(r.endpoint)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	if resp.IsError() {
		if out.Error != "" {
			return nil, fmt.Errorf("inference failed with status %d: %s", resp.StatusCode(), out.Error)
		}
		return nil, fmt.Errorf("inference failed with status %d", resp.StatusCode())
	}
	r.logger.Debug("remote inference finished",
		zap.String("endpoint", r.endpoint),
		zap.Int("detections", len(out.Detections)),
		zap.Duration("elapsed", resp.Time()))
	return out.Detections, nil
}

// ModelID returns the endpoint URL.
func (r *RemoteDetector) ModelID() string {
	return r.endpoint
}

// Close is a no-op; the HTTP client holds no exclusive resources.
func (r *RemoteDetector) Close() error {
	return nil
}
