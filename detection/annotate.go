package detection

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strconv"
	"strings"
)

// Style is the outline used for every box.
type Style struct {
	Color color.RGBA
	Width int
}

// DefaultStyle is a 3px red outline.
func DefaultStyle() Style {
	return Style{Color: color.RGBA{R: 0xff, A: 0xff}, Width: 3}
}

// StyleFromConfig parses the configured colour and width.
func StyleFromConfig(cfg AnnotateConfig) (Style, error) {
	st := DefaultStyle()
	if cfg.Width > 0 {
		st.Width = cfg.Width
	}
	if cfg.Color != "" {
		c, err := ParseHexColor(cfg.Color)
		if err != nil {
			return st, err
		}
		st.Color = c
	}
	return st, nil
}

// ParseHexColor accepts #RRGGBB or #RRGGBBAA.
func ParseHexColor(s string) (color.RGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 && len(hex) != 8 {
		return color.RGBA{}, fmt.Errorf("invalid colour %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid colour %q: %w", s, err)
	}
	if len(hex) == 6 {
		v = v<<8 | 0xff
	}
	return color.RGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

// Annotate returns a copy of img with one rectangle outline per detection, in
// set order. The stroke grows inward from the box edges.
func Annotate(img image.Image, set Set, st Style) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	width := st.Width
	if width < 1 {
		width = 1
	}
	for _, d := range set {
		drawRect(out, int(d.XMin), int(d.YMin), int(d.XMax), int(d.YMax), width, st.Color)
	}
	return out
}

func drawRect(dst *image.RGBA, x0, y0, x1, y1, width int, c color.RGBA) {
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	for i := 0; i < width; i++ {
		l, t, r, btm := x0+i, y0+i, x1-i, y1-i
		if l > r || t > btm {
			return
		}
		hline(dst, l, r, t, c)
		hline(dst, l, r, btm, c)
		vline(dst, t, btm, l, c)
		vline(dst, t, btm, r, c)
	}
}

func hline(dst *image.RGBA, x0, x1, y int, c color.RGBA) {
	fill(dst, image.Rect(x0, y, x1+1, y+1), c)
}

func vline(dst *image.RGBA, y0, y1, x int, c color.RGBA) {
	fill(dst, image.Rect(x, y0, x+1, y1+1), c)
}

func fill(dst *image.RGBA, r image.Rectangle, c color.RGBA) {
	r = r.Intersect(dst.Bounds())
	if r.Empty() {
		return
	}
	draw.Draw(dst, r, image.NewUniform(c), image.Point{}, draw.Src)
}
