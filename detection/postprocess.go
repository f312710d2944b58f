package detection

import (
	"image"
	"math"
	"sort"
)

type candidate struct {
	x1, y1, x2, y2 float64
	score          float64
	class          int
}

// decodeYOLOv5 turns a [rows x cols] YOLOv5 head output (cx, cy, w, h, obj,
// class scores...) into detections in source image coordinates, ordered by
// confidence. NMS is class aware.
func decodeYOLOv5(out []float32, rows, cols int, labels []string, lb letterbox, bounds image.Rectangle, opts yoloOptions) Set {
	if cols < 6 || len(out) < rows*cols {
		return nil
	}
	cands := make([]candidate, 0, 64)
	for i := 0; i < rows; i++ {
		row := out[i*cols : (i+1)*cols]
		obj := float64(row[4])
		if obj <= opts.conf {
			continue
		}
		best, bestScore := 0, float32(-1)
		for j := 5; j < cols; j++ {
			if row[j] > bestScore {
				bestScore = row[j]
				best = j - 5
			}
		}
		score := obj * float64(bestScore)
		if score <= opts.conf {
			continue
		}
		cx, cy := float64(row[0]), float64(row[1])
		w, h := float64(row[2]), float64(row[3])
		cands = append(cands, candidate{
			x1:    cx - w/2,
			y1:    cy - h/2,
			x2:    cx + w/2,
			y2:    cy + h/2,
			score: score,
			class: best,
		})
	}

	kept := nms(cands, opts.iou, opts.maxDet)

	fw, fh := float64(bounds.Dx()), float64(bounds.Dy())
	set := make(Set, 0, len(kept))
	for _, c := range kept {
		x1, y1 := lb.toSource(c.x1, c.y1)
		x2, y2 := lb.toSource(c.x2, c.y2)
		set = append(set, Detection{
			Name:       labelFor(labels, c.class),
			Confidence: c.score,
			XMin:       clamp(x1, 0, fw),
			YMin:       clamp(y1, 0, fh),
			XMax:       clamp(x2, 0, fw),
			YMax:       clamp(y2, 0, fh),
		})
	}
	return set
}

// nms keeps the highest scoring boxes, suppressing same-class boxes whose IoU
// with an already kept box exceeds thresh.
func nms(cands []candidate, thresh float64, maxDet int) []candidate {
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].score > cands[j].score })
	suppressed := make([]bool, len(cands))
	kept := make([]candidate, 0, len(cands))
	for i := range cands {
		if suppressed[i] {
			continue
		}
		kept = append(kept, cands[i])
		if maxDet > 0 && len(kept) >= maxDet {
			break
		}
		for j := i + 1; j < len(cands); j++ {
			if suppressed[j] || cands[j].class != cands[i].class {
				continue
			}
			if iou(cands[i], cands[j]) > thresh {
				suppressed[j] = true
			}
		}
	}
	return kept
}

func iou(a, b candidate) float64 {
	ix := math.Max(0, math.Min(a.x2, b.x2)-math.Max(a.x1, b.x1))
	iy := math.Max(0, math.Min(a.y2, b.y2)-math.Max(a.y1, b.y1))
	inter := ix * iy
	union := (a.x2-a.x1)*(a.y2-a.y1) + (b.x2-b.x1)*(b.y2-b.y1) - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
