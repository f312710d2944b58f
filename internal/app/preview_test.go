package app

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestThumbnail(t *testing.T) {
	wide := thumbnail(image.NewRGBA(image.Rect(0, 0, 800, 400)))
	assert.Equal(t, 400, wide.Bounds().Dx())
	assert.Equal(t, 200, wide.Bounds().Dy())

	tall := thumbnail(image.NewRGBA(image.Rect(0, 0, 300, 1200)))
	assert.Equal(t, 100, tall.Bounds().Dx())
	assert.Equal(t, 400, tall.Bounds().Dy())

	small := image.NewRGBA(image.Rect(0, 0, 120, 80))
	assert.Same(t, small, thumbnail(small).(*image.RGBA))

	assert.Nil(t, thumbnail(nil))
}
