package tileservice

import (
	"github.com/rgdonohue/ghost-forest-watcher/utils"
)

// GranuleConfig carries the classification settings a worker needs to
// process one tile.
type GranuleConfig struct {
	HealthyThreshold  float64        `json:"healthy_threshold"`
	StressedThreshold float64        `json:"stressed_threshold"`
	DeadThreshold     float64        `json:"dead_threshold"`
	Palette           *utils.Palette `json:"palette,omitempty"`
}

// TileGranule is the request payload sent to a tile worker over its
// unix socket. Window is [offx, offy, width, height] in pixels of the
// source raster.
type TileGranule struct {
	Operation  string        `json:"operation"`
	RasterPath string        `json:"raster_path"`
	OutputRoot string        `json:"output_root"`
	TileID     int           `json:"tile_id"`
	Window     [4]int        `json:"window"`
	Bounds     [4]float64    `json:"bounds"`
	AreaKm2    float64       `json:"area_km2"`
	Config     GranuleConfig `json:"config"`
}

// TileStats is the vegetation pixel accounting of one processed tile.
type TileStats struct {
	TotalVegetationPixels int64 `json:"total_vegetation_pixels"`
	HealthyPixels         int64 `json:"healthy_pixels"`
	StressedPixels        int64 `json:"stressed_pixels"`
	DecliningPixels       int64 `json:"declining_pixels"`
	DeadPixels            int64 `json:"dead_pixels"`
}

// Result is the worker response. Error is "OK" on success, otherwise a
// message naming the failed step.
type Result struct {
	Error     string     `json:"error"`
	Stats     *TileStats `json:"stats,omitempty"`
	OutputDir string     `json:"output_dir,omitempty"`
}

// TileRecord is the statistics.json document a worker persists inside
// each tile output directory. Summaries can be rebuilt from these
// records alone.
type TileRecord struct {
	TileID     int        `json:"tile_id"`
	Status     string     `json:"status"`
	Statistics TileStats  `json:"statistics"`
	AreaKm2    float64    `json:"area_km2"`
	Bounds     [4]float64 `json:"bounds"`
}
