package processor

import (
	"path/filepath"
	"testing"
)

func TestRunSummaryRoundTrip(t *testing.T) {
	outDir := t.TempDir()

	results := []*TileResult{
		completedTile(0, 100, 20, 5, 1, 2.5),
		{TileID: 1, Status: TileFailed, Error: "tile timed out after 5m0s"},
	}

	summary := NewRunSummary(results, outDir)
	if err := summary.Write(outDir); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	loaded, err := LoadRunSummary(filepath.Join(outDir, RunSummaryFileName))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if loaded.RunID != summary.RunID {
		t.Errorf("expecting run id %v, actual %v", summary.RunID, loaded.RunID)
	}
	if loaded.ProcessingSummary != summary.ProcessingSummary {
		t.Errorf("expecting %+v, actual %+v", summary.ProcessingSummary, loaded.ProcessingSummary)
	}
	if loaded.AggregatedStatistics != summary.AggregatedStatistics {
		t.Errorf("expecting %+v, actual %+v", summary.AggregatedStatistics, loaded.AggregatedStatistics)
	}
	if len(loaded.TileResults) != 2 {
		t.Fatalf("expecting 2 tile results, actual %v", len(loaded.TileResults))
	}
	if loaded.TileResults[1].Error != "tile timed out after 5m0s" {
		t.Errorf("failed tile error lost: %+v", loaded.TileResults[1])
	}
}
