// Package tileproc holds the per-tile computation run inside a tile
// worker subprocess: windowed raster reads, robust normalisation,
// vegetation segmentation, health classification and the tile output
// artifacts.
package tileproc

import (
	"image/color"
)

// Tile is the in-memory working set of one tile window.
type Tile struct {
	Width  int
	Height int
	// Values are the cleaned index samples, row major.
	Values []float32
	Valid  []bool
}

// Segmenter separates vegetation from everything else in a tile.
// Load is called once per worker process before any tile arrives;
// implementations backed by a model load their weights there.
type Segmenter interface {
	Load() error
	Segment(tile *Tile) ([]bool, error)
}

// BuiltinSegmenter treats every valid pixel as vegetation. It is the
// fallback when no model backed segmenter is configured and costs
// nothing to load.
type BuiltinSegmenter struct{}

func (s *BuiltinSegmenter) Load() error {
	return nil
}

func (s *BuiltinSegmenter) Segment(tile *Tile) ([]bool, error) {
	vegetation := make([]bool, len(tile.Valid))
	copy(vegetation, tile.Valid)
	return vegetation, nil
}

// RenderRGB paints the normalised values through a 256 colour ramp
// into packed RGB bytes. Invalid pixels render black.
func RenderRGB(norm []float32, valid []bool, ramp []color.RGBA) []uint8 {
	rgb := make([]uint8, 3*len(norm))
	for i, v := range norm {
		if !valid[i] {
			continue
		}
		idx := int(v * 255.0)
		if idx < 0 {
			idx = 0
		}
		if idx > 255 {
			idx = 255
		}
		c := ramp[idx]
		rgb[3*i] = c.R
		rgb[3*i+1] = c.G
		rgb[3*i+2] = c.B
	}
	return rgb
}
