package detection

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCapitalize(t *testing.T) {
	tests := map[string]string{
		"person":        "Person",
		"traffic light": "Traffic light",
		"TV":            "Tv",
		"":              "",
		"élan":          "Élan",
	}
	for in, want := range tests {
		assert.Equal(t, want, Capitalize(in), "Capitalize(%q)", in)
	}
}

func TestClassList_DistinctFirstAppearance(t *testing.T) {
	set := Set{{Name: "dog"}, {Name: "person"}, {Name: "dog"}, {Name: "cat"}, {Name: "person"}}
	assert.Equal(t, []string{"Dog", "Person", "Cat"}, ClassList(set))
}

func TestFormatClassList(t *testing.T) {
	set := Set{{Name: "dog"}, {Name: "person"}, {Name: "dog"}}
	assert.Equal(t, "Objects Detected:\n1. Dog\n2. Person", FormatClassList(set))
	assert.Equal(t, "Objects Detected:", FormatClassList(nil))
}

func TestLoadLabels(t *testing.T) {
	labels, err := LoadLabels("")
	require.NoError(t, err)
	assert.Len(t, labels, 80)
	assert.Equal(t, "person", labels[0])

	path := filepath.Join(t.TempDir(), "labels.txt")
	require.NoError(t, os.WriteFile(path, []byte("hard hat\r\n\r\n  safety   vest \nmask\n"), 0o644))
	labels, err = LoadLabels(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"hard hat", "safety vest", "mask"}, labels)

	empty := filepath.Join(t.TempDir(), "empty.txt")
	require.NoError(t, os.WriteFile(empty, []byte("\n\n"), 0o644))
	_, err = LoadLabels(empty)
	assert.Error(t, err)
}

func TestLabelFor_OutOfRange(t *testing.T) {
	assert.Equal(t, "cat", labelFor([]string{"dog", "cat"}, 1))
	assert.Equal(t, "class_7", labelFor([]string{"dog"}, 7))
}
