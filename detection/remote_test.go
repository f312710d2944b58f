package detection

import (
	"context"
	"encoding/json"
	"image"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemoteDetector_Detect(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		f, hdr, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer f.Close()
		assert.Equal(t, "image.png", hdr.Filename)
		_, format, err := image.DecodeConfig(f)
		assert.NoError(t, err)
		assert.Equal(t, "png", format)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"detections": twoDogs})
	}))
	defer srv.Close()

	det, err := NewRemoteDetector(DetectorConfig{RemoteURL: srv.URL, RemoteTimeout: 5}, nil)
	require.NoError(t, err)
	defer det.Close()

	set, err := det.Detect(context.Background(), image.NewRGBA(image.Rect(0, 0, 8, 8)))
	require.NoError(t, err)
	assert.Equal(t, twoDogs, set)
	assert.Equal(t, srv.URL, det.ModelID())
}

func TestRemoteDetector_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"model not loaded"}`))
	}))
	defer srv.Close()

	det, err := NewRemoteDetector(DetectorConfig{RemoteURL: srv.URL, RemoteTimeout: 5}, nil)
	require.NoError(t, err)

	_, err = det.Detect(context.Background(), image.NewRGBA(image.Rect(0, 0, 4, 4)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
	assert.Contains(t, err.Error(), "model not loaded")
}

func TestNewRemoteDetector_Validates(t *testing.T) {
	_, err := NewRemoteDetector(DetectorConfig{}, nil)
	assert.Error(t, err)
	_, err = NewRemoteDetector(DetectorConfig{RemoteURL: "not a url"}, nil)
	assert.Error(t, err)
}

func TestNewDetector_UnknownBackend(t *testing.T) {
	_, err := NewDetector(DetectorConfig{Backend: "tpu"}, nil)
	assert.ErrorContains(t, err, "unsupported detector backend")
}

func TestNewDetector_MissingModel(t *testing.T) {
	_, err := NewDetector(DetectorConfig{Backend: BackendONNXRuntime, ModelPath: "/nonexistent/yolov5s.onnx"}, nil)
	assert.ErrorIs(t, err, ErrNoModel)
}
