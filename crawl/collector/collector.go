// Package collector rebuilds run summaries from the statistics.json
// records workers leave inside the tile output directories. It only
// needs the output tree, so a summary lost or corrupted after a run
// can always be regenerated.
package collector

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"sync"

	"github.com/rgdonohue/ghost-forest-watcher/processor"
	"github.com/rgdonohue/ghost-forest-watcher/worker/tileservice"
)

var tileDirPattern = regexp.MustCompile(`^tile_\d{4,}$`)

// CollectTileRecords scans an output root for tile directories and
// parses their statistics.json records with conc concurrent readers.
// Records come back sorted by tile id.
func CollectTileRecords(rootDir string, conc int) ([]*tileservice.TileRecord, error) {
	entries, err := os.ReadDir(rootDir)
	if err != nil {
		return nil, err
	}

	var tileDirs []string
	for _, entry := range entries {
		if entry.IsDir() && tileDirPattern.MatchString(entry.Name()) {
			tileDirs = append(tileDirs, entry.Name())
		}
	}

	if conc < 1 {
		conc = 1
	}

	var mu sync.Mutex
	var records []*tileservice.TileRecord
	var firstErr error

	cLimiter := processor.NewConcLimiter(conc)
	for _, dir := range tileDirs {
		cLimiter.Increase()
		go func(dir string) {
			defer cLimiter.Decrease()

			record, err := readTileRecord(filepath.Join(rootDir, dir, "statistics.json"))

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			records = append(records, record)
		}(dir)
	}
	cLimiter.Wait()

	if firstErr != nil {
		return nil, firstErr
	}

	sort.Slice(records, func(i, j int) bool { return records[i].TileID < records[j].TileID })
	return records, nil
}

func readTileRecord(path string) (*tileservice.TileRecord, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	record := &tileservice.TileRecord{}
	if err := json.Unmarshal(src, record); err != nil {
		return nil, fmt.Errorf("%s: %v", path, err)
	}
	return record, nil
}

// RebuildRunSummary folds collected records into the same summary
// document a live run produces. Only tiles with a record contribute;
// tiles that never completed are simply absent.
func RebuildRunSummary(records []*tileservice.TileRecord, outputRoot string) *processor.RunSummary {
	results := make([]*processor.TileResult, 0, len(records))
	for _, record := range records {
		stats := &processor.CategoryStats{
			TotalVegetationPixels: record.Statistics.TotalVegetationPixels,
			HealthyPixels:         record.Statistics.HealthyPixels,
			StressedPixels:        record.Statistics.StressedPixels,
			DecliningPixels:       record.Statistics.DecliningPixels,
			DeadPixels:            record.Statistics.DeadPixels,
		}
		results = append(results, &processor.TileResult{
			TileID:     record.TileID,
			Status:     processor.TileStatus(record.Status),
			Statistics: stats,
			AreaKm2:    record.AreaKm2,
			OutputDir:  filepath.Join(outputRoot, fmt.Sprintf("tile_%04d", record.TileID)),
		})
	}
	return processor.NewRunSummary(results, outputRoot)
}
