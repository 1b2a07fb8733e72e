package tileproc

import (
	"github.com/rgdonohue/ghost-forest-watcher/worker/tileservice"
)

// Thresholds are the index cut points between health categories. They
// must strictly decrease from Healthy to Dead.
type Thresholds struct {
	Healthy  float64
	Stressed float64
	Dead     float64
}

// Classification holds the per-category pixel masks of one tile plus
// the counts derived from them. Masks are row major and cover the full
// tile window; a pixel is set in at most one health mask and only when
// it is also set in Vegetation.
type Classification struct {
	Vegetation []bool
	Healthy    []bool
	Stressed   []bool
	Declining  []bool
	Dead       []bool
	Stats      tileservice.TileStats
}

// Classify assigns each vegetation pixel to exactly one health
// category from its raw index value. Above the healthy threshold is
// healthy, at or below the dead threshold is dead, the band down to
// the stressed threshold is stressed and the remaining band is
// declining.
func Classify(tile *Tile, vegetation []bool, t Thresholds) *Classification {
	n := len(tile.Values)
	cls := &Classification{
		Vegetation: vegetation,
		Healthy:    make([]bool, n),
		Stressed:   make([]bool, n),
		Declining:  make([]bool, n),
		Dead:       make([]bool, n),
	}

	for i := 0; i < n; i++ {
		if !vegetation[i] {
			continue
		}
		cls.Stats.TotalVegetationPixels++

		v := float64(tile.Values[i])
		switch {
		case v > t.Healthy:
			cls.Healthy[i] = true
			cls.Stats.HealthyPixels++
		case v > t.Stressed:
			cls.Stressed[i] = true
			cls.Stats.StressedPixels++
		case v > t.Dead:
			cls.Declining[i] = true
			cls.Stats.DecliningPixels++
		default:
			cls.Dead[i] = true
			cls.Stats.DeadPixels++
		}
	}

	return cls
}
