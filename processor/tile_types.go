package processor

import (
	"time"
)

// HealthCategory is one of the fixed vegetation health classes assigned
// to vegetation pixels.
type HealthCategory int

const (
	CategoryHealthy HealthCategory = iota
	CategoryStressed
	CategoryDeclining
	CategoryDead
)

var healthCategoryNames = [...]string{"healthy", "stressed", "declining", "dead"}

func (c HealthCategory) String() string {
	if c < 0 || int(c) >= len(healthCategoryNames) {
		return "unknown"
	}
	return healthCategoryNames[c]
}

// HealthCategories lists every category in classification order.
func HealthCategories() []HealthCategory {
	return []HealthCategory{CategoryHealthy, CategoryStressed, CategoryDeclining, CategoryDead}
}

// Window is a pixel window into the source raster.
type Window struct {
	OffX   int `json:"off_x"`
	OffY   int `json:"off_y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// TileDescriptor is one planned unit of work. It is created by the
// planner and never mutated afterwards; workers only read the window.
type TileDescriptor struct {
	ID       int        `json:"id"`
	Window   Window     `json:"window"`
	Bounds   [4]float64 `json:"bounds"`
	AreaKm2  float64    `json:"area_km2"`
	Priority int        `json:"priority"`
}

// CategoryStats holds per-category vegetation pixel counts for one tile.
// The sum of the category counts never exceeds the vegetation pixel
// total; non-vegetation pixels belong to no category.
type CategoryStats struct {
	TotalVegetationPixels int64 `json:"total_vegetation_pixels"`
	HealthyPixels         int64 `json:"healthy_pixels"`
	StressedPixels        int64 `json:"stressed_pixels"`
	DecliningPixels       int64 `json:"declining_pixels"`
	DeadPixels            int64 `json:"dead_pixels"`
}

// PixelCount returns the count of one category.
func (s *CategoryStats) PixelCount(c HealthCategory) int64 {
	switch c {
	case CategoryHealthy:
		return s.HealthyPixels
	case CategoryStressed:
		return s.StressedPixels
	case CategoryDeclining:
		return s.DecliningPixels
	case CategoryDead:
		return s.DeadPixels
	}
	return 0
}

// AddPixels accumulates a count into one category.
func (s *CategoryStats) AddPixels(c HealthCategory, n int64) {
	switch c {
	case CategoryHealthy:
		s.HealthyPixels += n
	case CategoryStressed:
		s.StressedPixels += n
	case CategoryDeclining:
		s.DecliningPixels += n
	case CategoryDead:
		s.DeadPixels += n
	}
}

// CategoryTotal sums the four category counts.
func (s *CategoryStats) CategoryTotal() int64 {
	return s.HealthyPixels + s.StressedPixels + s.DecliningPixels + s.DeadPixels
}

type TileStatus string

const (
	TileCompleted TileStatus = "completed"
	TileFailed    TileStatus = "failed"
)

// TileResult is the outcome of processing one TileDescriptor. Exactly
// one result exists per submitted tile id once a dispatch completes;
// results are immutable once produced.
type TileResult struct {
	TileID     int            `json:"tile_id"`
	Status     TileStatus     `json:"status"`
	Statistics *CategoryStats `json:"statistics,omitempty"`
	AreaKm2    float64        `json:"area_km2,omitempty"`
	OutputDir  string         `json:"output_dir,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// AggregateStats combines the per-tile category counts of all completed
// tiles. Percentages are fractions of the total vegetation pixel count
// and are all zero when that count is zero.
type AggregateStats struct {
	TotalVegetationPixels int64   `json:"total_vegetation_pixels"`
	HealthyPixels         int64   `json:"healthy_pixels"`
	StressedPixels        int64   `json:"stressed_pixels"`
	DecliningPixels       int64   `json:"declining_pixels"`
	DeadPixels            int64   `json:"dead_pixels"`
	HealthyPercent        float64 `json:"healthy_percent"`
	StressedPercent       float64 `json:"stressed_percent"`
	DecliningPercent      float64 `json:"declining_percent"`
	DeadPercent           float64 `json:"dead_percent"`
}

// Pixels returns the aggregated count of one category.
func (a *AggregateStats) Pixels(c HealthCategory) int64 {
	switch c {
	case CategoryHealthy:
		return a.HealthyPixels
	case CategoryStressed:
		return a.StressedPixels
	case CategoryDeclining:
		return a.DecliningPixels
	case CategoryDead:
		return a.DeadPixels
	}
	return 0
}

// Percent returns the aggregated percentage of one category.
func (a *AggregateStats) Percent(c HealthCategory) float64 {
	switch c {
	case CategoryHealthy:
		return a.HealthyPercent
	case CategoryStressed:
		return a.StressedPercent
	case CategoryDeclining:
		return a.DecliningPercent
	case CategoryDead:
		return a.DeadPercent
	}
	return 0
}

// ProcessingSummary is the outcome count block of a run.
type ProcessingSummary struct {
	TotalTiles     int     `json:"total_tiles"`
	CompletedTiles int     `json:"completed_tiles"`
	FailedTiles    int     `json:"failed_tiles"`
	SuccessRate    float64 `json:"success_rate"`
	TotalAreaKm2   float64 `json:"total_area_km2"`
}

// RunSummary is the single record describing the outcome of processing
// all tiles of one run. It is assembled once after all dispatch results
// are collected and never mutated after creation.
type RunSummary struct {
	RunID                string            `json:"run_id"`
	CreatedAt            time.Time         `json:"created_at"`
	ProcessingSummary    ProcessingSummary `json:"processing_summary"`
	AggregatedStatistics AggregateStats    `json:"aggregated_statistics"`
	TileResults          []*TileResult     `json:"tile_results"`
}
