package processor

import (
	"crypto/md5"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const RunSummaryFileName = "processing_summary.json"

// NewRunSummary assembles the final record of a dispatch. Results are
// expected to hold exactly one entry per submitted tile.
func NewRunSummary(results []*TileResult, outputRoot string) *RunSummary {
	now := time.Now().UTC()
	signature := fmt.Sprintf("%s%d", outputRoot, now.UnixNano())

	completed := 0
	for _, res := range results {
		if res.Status == TileCompleted {
			completed++
		}
	}

	successRate := 0.0
	if len(results) > 0 {
		successRate = float64(completed) / float64(len(results)) * 100.0
	}

	agg, areaKm2 := AggregateResults(results)

	return &RunSummary{
		RunID:     fmt.Sprintf("%x", md5.Sum([]byte(signature))),
		CreatedAt: now,
		ProcessingSummary: ProcessingSummary{
			TotalTiles:     len(results),
			CompletedTiles: completed,
			FailedTiles:    len(results) - completed,
			SuccessRate:    successRate,
			TotalAreaKm2:   areaKm2,
		},
		AggregatedStatistics: *agg,
		TileResults:          results,
	}
}

// Write persists the summary as processing_summary.json under the
// output root.
func (s *RunSummary) Write(outputRoot string) error {
	out, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(outputRoot, RunSummaryFileName), out, 0644)
}

// LoadRunSummary reads a persisted processing_summary.json.
func LoadRunSummary(path string) (*RunSummary, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var summary RunSummary
	if err := json.Unmarshal(src, &summary); err != nil {
		return nil, fmt.Errorf("run summary %s: %v", path, err)
	}
	return &summary, nil
}
