package detection

import "errors"

var (
	// ErrCSVMissing marks a cached annotated image whose detail CSV is absent.
	ErrCSVMissing = errors.New("detail csv not found")
	// ErrNotCached is returned when no annotated image exists for a filename.
	ErrNotCached = errors.New("no annotated image cached")
	// ErrUnsupportedFormat is returned for image extensions other than jpg/jpeg/png.
	ErrUnsupportedFormat = errors.New("unsupported image format")
	// ErrNoModel is returned when the configured model file cannot be found.
	ErrNoModel = errors.New("model file not found")
)

// Detection is one object instance found in an image.
type Detection struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
	XMin       float64 `json:"xmin"`
	YMin       float64 `json:"ymin"`
	XMax       float64 `json:"xmax"`
	YMax       float64 `json:"ymax"`
}

// Set is the ordered list of detections for one source image.
type Set []Detection

// Names returns the distinct class names in first-appearance order.
func (s Set) Names() []string {
	seen := make(map[string]struct{}, len(s))
	out := make([]string, 0, len(s))
	for _, d := range s {
		if _, ok := seen[d.Name]; ok {
			continue
		}
		seen[d.Name] = struct{}{}
		out = append(out, d.Name)
	}
	return out
}

// Backend names the inference implementation behind a Detector.
type Backend string

const (
	BackendONNXRuntime Backend = "onnxruntime"
	BackendRemote      Backend = "remote"
	BackendOpenCV      Backend = "opencv"
)

// LayoutConfig holds the on-disk cache directories.
type LayoutConfig struct {
	ImagesDir string `yaml:"imagesDir"`
	CSVDir    string `yaml:"csvDir"`
	BoxesDir  string `yaml:"boxesDir"`
}

// DetectorConfig selects and tunes the detection backend.
type DetectorConfig struct {
	Backend           Backend `yaml:"backend"`
	ModelPath         string  `yaml:"modelPath"`
	LabelsPath        string  `yaml:"labelsPath"`
	SharedLibraryPath string  `yaml:"sharedLibraryPath"`
	InputSize         int     `yaml:"inputSize"`
	ConfThreshold     float64 `yaml:"confThreshold"`
	IoUThreshold      float64 `yaml:"iouThreshold"`
	MaxDetections     int     `yaml:"maxDetections"`
	IntraOpThreads    int     `yaml:"intraOpThreads"`
	RemoteURL         string  `yaml:"remoteURL"`
	RemoteTimeout     int     `yaml:"remoteTimeoutSeconds"`
}

// AnnotateConfig controls rectangle drawing.
type AnnotateConfig struct {
	Color string `yaml:"color"`
	Width int    `yaml:"width"`
}

// LogConfig picks the zap preset.
type LogConfig struct {
	Mode string `yaml:"mode"`
}

// Config aggregates runtime settings persisted to config.yaml.
type Config struct {
	Layout   LayoutConfig   `yaml:"layout"`
	Detector DetectorConfig `yaml:"detector"`
	Annotate AnnotateConfig `yaml:"annotate"`
	Log      LogConfig      `yaml:"log"`
}

// ApplyDefaults populates zero values with the stock YOLOv5s behaviour.
func (c *Config) ApplyDefaults() {
	if c.Layout.ImagesDir == "" {
		c.Layout.ImagesDir = "images/"
	}
	if c.Layout.CSVDir == "" {
		c.Layout.CSVDir = "results/csv/"
	}
	if c.Layout.BoxesDir == "" {
		c.Layout.BoxesDir = "results/bounding_boxes"
	}
	if c.Detector.Backend == "" {
		c.Detector.Backend = BackendONNXRuntime
	}
	if c.Detector.ModelPath == "" {
		c.Detector.ModelPath = "models/yolov5s.onnx"
	}
	if c.Detector.InputSize <= 0 {
		c.Detector.InputSize = 640
	}
	if c.Detector.ConfThreshold <= 0 {
		c.Detector.ConfThreshold = 0.25
	}
	if c.Detector.IoUThreshold <= 0 {
		c.Detector.IoUThreshold = 0.45
	}
	if c.Detector.MaxDetections <= 0 {
		c.Detector.MaxDetections = 1000
	}
	if c.Detector.RemoteTimeout <= 0 {
		c.Detector.RemoteTimeout = 30
	}
	if c.Annotate.Color == "" {
		c.Annotate.Color = "#FF0000"
	}
	if c.Annotate.Width <= 0 {
		c.Annotate.Width = 3
	}
	if c.Log.Mode == "" {
		c.Log.Mode = "production"
	}
}
