package detection

import (
	"fmt"
	"os"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// cocoLabels are the 80 classes YOLOv5s is trained on, in model index order.
var cocoLabels = []string{
	"person", "bicycle", "car", "motorcycle", "airplane", "bus", "train", "truck",
	"boat", "traffic light", "fire hydrant", "stop sign", "parking meter", "bench",
	"bird", "cat", "dog", "horse", "sheep", "cow", "elephant", "bear", "zebra",
	"giraffe", "backpack", "umbrella", "handbag", "tie", "suitcase", "frisbee",
	"skis", "snowboard", "sports ball", "kite", "baseball bat", "baseball glove",
	"skateboard", "surfboard", "tennis racket", "bottle", "wine glass", "cup",
	"fork", "knife", "spoon", "bowl", "banana", "apple", "sandwich", "orange",
	"broccoli", "carrot", "hot dog", "pizza", "donut", "cake", "chair", "couch",
	"potted plant", "bed", "dining table", "toilet", "tv", "laptop", "mouse",
	"remote", "keyboard", "cell phone", "microwave", "oven", "toaster", "sink",
	"refrigerator", "book", "clock", "vase", "scissors", "teddy bear", "hair drier",
	"toothbrush",
}

// DefaultLabels returns a copy of the COCO class names.
func DefaultLabels() []string {
	return append([]string(nil), cocoLabels...)
}

// LoadLabels reads one class name per line. An empty path returns the COCO labels.
func LoadLabels(path string) ([]string, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultLabels(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read labels: %w", err)
	}
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	var labels []string
	for _, line := range strings.Split(text, "\n") {
		line = normalizeLabel(line)
		if line == "" {
			continue
		}
		labels = append(labels, line)
	}
	if len(labels) == 0 {
		return nil, fmt.Errorf("labels file %s is empty", path)
	}
	return labels, nil
}

func labelFor(labels []string, idx int) string {
	if idx >= 0 && idx < len(labels) {
		return labels[idx]
	}
	return fmt.Sprintf("class_%d", idx)
}

func normalizeLabel(s string) string {
	s = norm.NFKC.String(s)
	return strings.Join(strings.Fields(s), " ")
}

var lowerCaser = cases.Lower(language.Und)

// Capitalize upper-cases the first letter of name and lower-cases the rest.
func Capitalize(name string) string {
	lower := lowerCaser.String(name)
	r, size := utf8.DecodeRuneInString(lower)
	if r == utf8.RuneError {
		return lower
	}
	return string(unicode.ToTitle(r)) + lower[size:]
}

// ClassList returns the distinct class names of s, capitalized, in first-appearance order.
func ClassList(s Set) []string {
	names := s.Names()
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = Capitalize(n)
	}
	return out
}

// FormatClassList renders the detected-classes text shown next to the preview.
func FormatClassList(s Set) string {
	var b strings.Builder
	b.WriteString("Objects Detected:")
	for i, name := range ClassList(s) {
		fmt.Fprintf(&b, "\n%d. %s", i+1, name)
	}
	return b.String()
}
