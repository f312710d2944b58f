package detection

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

const jpegQuality = 95

// Format is the encoding used when writing an annotated image.
type Format string

const (
	FormatJPEG Format = "jpeg"
	FormatPNG  Format = "png"
)

// FormatFromPath picks the encoding from a file extension. No extension means JPEG.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return FormatPNG, nil
	case ".jpg", ".jpeg", "":
		return FormatJPEG, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// Store is the filesystem result cache keyed by image filename.
type Store struct {
	layout LayoutConfig
	logger *zap.Logger
}

// NewStore creates the cache directories if they do not exist yet.
func NewStore(layout LayoutConfig, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	for _, dir := range []string{layout.ImagesDir, layout.CSVDir, layout.BoxesDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(filepath.Clean(dir), 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return &Store{layout: layout, logger: logger}, nil
}

// CSVName derives the detail CSV filename. Only a literal ".jpg" is swapped for
// "_details.csv"; any other name gets the suffix appended (dog.png -> dog.png_details.csv).
func CSVName(name string) string {
	if strings.Contains(name, ".jpg") {
		return strings.ReplaceAll(name, ".jpg", "_details.csv")
	}
	return name + "_details.csv"
}

// ImagePath is where the annotated image for name is cached.
func (s *Store) ImagePath(name string) string {
	return filepath.Join(s.layout.BoxesDir, filepath.Base(name))
}

// CSVPath is where the detail CSV for name is cached.
func (s *Store) CSVPath(name string) string {
	return filepath.Join(s.layout.CSVDir, CSVName(filepath.Base(name)))
}

// HasCached reports whether an annotated image exists for name.
func (s *Store) HasCached(name string) bool {
	info, err := os.Stat(s.ImagePath(name))
	return err == nil && info.Mode().IsRegular()
}

// LoadCached reads the annotated image and its detail CSV. When the CSV is
// missing the image is still returned together with an ErrCSVMissing error.
func (s *Store) LoadCached(name string) (image.Image, Set, error) {
	img, err := decodeFile(s.ImagePath(name))
	if err != nil {
		return nil, nil, fmt.Errorf("load cached image: %w", err)
	}
	f, err := os.Open(s.CSVPath(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return img, nil, fmt.Errorf("%w for %s", ErrCSVMissing, filepath.Base(name))
		}
		return nil, nil, fmt.Errorf("open detail csv: %w", err)
	}
	defer f.Close()
	set, err := ReadCSV(f)
	if err != nil {
		return nil, nil, err
	}
	return img, set, nil
}

// SaveCSV writes the detection set as the detail CSV for name.
func (s *Store) SaveCSV(name string, set Set) (string, error) {
	path := s.CSVPath(name)
	var buf bytes.Buffer
	if err := WriteCSV(&buf, set); err != nil {
		return "", fmt.Errorf("encode csv: %w", err)
	}
	if err := writeFileAtomic(path, buf.Bytes()); err != nil {
		return "", fmt.Errorf("save csv: %w", err)
	}
	s.logger.Info("csv saved", zap.String("path", path), zap.Int("rows", len(set)))
	return path, nil
}

// SaveImage writes the annotated image for name, encoded by its extension.
func (s *Store) SaveImage(name string, img image.Image) (string, error) {
	path := s.ImagePath(name)
	format, err := FormatFromPath(path)
	if err != nil {
		format = FormatJPEG
	}
	var buf bytes.Buffer
	if err := Encode(&buf, img, format); err != nil {
		return "", fmt.Errorf("encode image: %w", err)
	}
	if err := writeFileAtomic(path, buf.Bytes()); err != nil {
		return "", fmt.Errorf("save image: %w", err)
	}
	s.logger.Info("annotated image saved", zap.String("path", path))
	return path, nil
}

// Export re-encodes the cached annotated image for name into w.
func (s *Store) Export(name string, w io.Writer, format Format) error {
	if !s.HasCached(name) {
		return fmt.Errorf("%w: %s", ErrNotCached, filepath.Base(name))
	}
	img, err := decodeFile(s.ImagePath(name))
	if err != nil {
		return fmt.Errorf("load cached image: %w", err)
	}
	return Encode(w, img, format)
}

// Encode writes img in the given format.
func Encode(w io.Writer, img image.Image, format Format) error {
	switch format {
	case FormatPNG:
		return png.Encode(w, img)
	case FormatJPEG:
		return jpeg.Encode(w, img, &jpeg.Options{Quality: jpegQuality})
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// DecodeFile decodes a JPEG or PNG file.
func DecodeFile(path string) (image.Image, error) {
	return decodeFile(path)
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return img, nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
