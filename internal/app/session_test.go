package app

import (
	"bytes"
	"context"
	"errors"
	"image"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yashubustudio/objectlens/detection"
)

type fakeProcessor struct {
	res   detection.Result
	err   error
	paths []string
}

func (f *fakeProcessor) Process(_ context.Context, path string) (detection.Result, error) {
	f.paths = append(f.paths, path)
	res := f.res
	res.Name = filepath.Base(path)
	return res, f.err
}

func newTestStore(t *testing.T) *detection.Store {
	t.Helper()
	root := t.TempDir()
	store, err := detection.NewStore(detection.LayoutConfig{
		ImagesDir: filepath.Join(root, "images"),
		CSVDir:    filepath.Join(root, "results", "csv"),
		BoxesDir:  filepath.Join(root, "results", "bounding_boxes"),
	}, nil)
	require.NoError(t, err)
	return store
}

func TestController_DownloadBeforeUpload(t *testing.T) {
	ctrl := NewController(&fakeProcessor{}, newTestStore(t), nil)

	assert.ErrorIs(t, ctrl.DownloadReady(), ErrNoSession)

	var buf bytes.Buffer
	err := ctrl.Export(&buf, "/tmp/out.jpg")
	assert.ErrorIs(t, err, ErrNoSession)
	assert.Zero(t, buf.Len())
}

func TestController_UploadThenExport(t *testing.T) {
	store := newTestStore(t)
	_, err := store.SaveImage("cat.jpg", image.NewRGBA(image.Rect(0, 0, 16, 16)))
	require.NoError(t, err)
	proc := &fakeProcessor{res: detection.Result{Set: detection.Set{{Name: "cat"}}}}
	ctrl := NewController(proc, store, nil)

	sess, err := ctrl.Upload(context.Background(), "/photos/cat.jpg")
	require.NoError(t, err)
	assert.Equal(t, "cat.jpg", sess.Filename)
	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, []string{"/photos/cat.jpg"}, proc.paths)

	cur, ok := ctrl.Current()
	require.True(t, ok)
	assert.Equal(t, sess, cur)
	require.NoError(t, ctrl.DownloadReady())

	var buf bytes.Buffer
	require.NoError(t, ctrl.Export(&buf, "/tmp/cat-boxed.png"))
	_, format, err := image.DecodeConfig(&buf)
	require.NoError(t, err)
	assert.Equal(t, "png", format)
}

func TestController_ExportValidatesDestination(t *testing.T) {
	store := newTestStore(t)
	_, err := store.SaveImage("cat.jpg", image.NewRGBA(image.Rect(0, 0, 4, 4)))
	require.NoError(t, err)
	ctrl := NewController(&fakeProcessor{}, store, nil)
	_, err = ctrl.Upload(context.Background(), "cat.jpg")
	require.NoError(t, err)

	var buf bytes.Buffer
	assert.ErrorIs(t, ctrl.Export(&buf, ""), ErrNoDestination)
	assert.ErrorIs(t, ctrl.Export(&buf, "/tmp/cat.gif"), detection.ErrUnsupportedFormat)
	assert.Zero(t, buf.Len())
}

func TestController_FailedUploadIsNotCached(t *testing.T) {
	boom := errors.New("inference failed")
	ctrl := NewController(&fakeProcessor{err: boom}, newTestStore(t), nil)

	_, err := ctrl.Upload(context.Background(), "dog.png")
	assert.ErrorIs(t, err, boom)

	assert.ErrorIs(t, ctrl.DownloadReady(), detection.ErrNotCached)
	var buf bytes.Buffer
	assert.ErrorIs(t, ctrl.Export(&buf, "/tmp/dog.png"), detection.ErrNotCached)
}

func TestController_UploadReplacesSession(t *testing.T) {
	ctrl := NewController(&fakeProcessor{}, newTestStore(t), nil)
	first, err := ctrl.Upload(context.Background(), "a.jpg")
	require.NoError(t, err)
	second, err := ctrl.Upload(context.Background(), "b.jpg")
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	cur, ok := ctrl.Current()
	require.True(t, ok)
	assert.Equal(t, "b.jpg", cur.Filename)
}

func TestController_CSVMissingKeepsResult(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	proc := &fakeProcessor{
		res: detection.Result{Image: img, Cached: true},
		err: detection.ErrCSVMissing,
	}
	ctrl := NewController(proc, newTestStore(t), nil)

	sess, err := ctrl.Upload(context.Background(), "cat.jpg")
	assert.ErrorIs(t, err, detection.ErrCSVMissing)
	assert.True(t, sess.Result.Cached)
	assert.Same(t, img, sess.Result.Image)
	assert.Empty(t, sess.Result.Set)
}
