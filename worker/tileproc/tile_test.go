package tileproc

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rgdonohue/ghost-forest-watcher/raster"
	"github.com/rgdonohue/ghost-forest-watcher/worker/tileservice"
)

func writeTestRaster(t *testing.T, dir string, fill func(col, row int) float32) string {
	path := filepath.Join(dir, "index.bin")
	hdr := raster.Header{
		Width:     64,
		Height:    64,
		Bands:     1,
		NoData:    -9999,
		Transform: raster.Transform{400000, 30, 0, 4400000, 0, -30},
		CRS:       "EPSG:32613",
	}
	data := make([]float32, 64*64)
	for row := 0; row < 64; row++ {
		for col := 0; col < 64; col++ {
			data[row*64+col] = fill(col, row)
		}
	}
	if err := raster.WriteFloat32(path, hdr, data); err != nil {
		t.Fatal(err)
	}
	return path
}

func testGranule(rasterPath, outputRoot string) *tileservice.TileGranule {
	return &tileservice.TileGranule{
		Operation:  "classify",
		RasterPath: rasterPath,
		OutputRoot: outputRoot,
		TileID:     3,
		Window:     [4]int{0, 0, 64, 64},
		Bounds:     [4]float64{400000, 4398080, 401920, 4400000},
		AreaKm2:    1920.0 * 1920.0 / 1e6,
		Config: tileservice.GranuleConfig{
			HealthyThreshold:  0.1,
			StressedThreshold: -0.1,
			DeadThreshold:     -0.3,
		},
	}
}

func TestProcessTile(t *testing.T) {
	dir := t.TempDir()

	// four horizontal bands, one per health category
	rasterPath := writeTestRaster(t, dir, func(col, row int) float32 {
		switch {
		case row < 16:
			return 0.5
		case row < 32:
			return 0.0
		case row < 48:
			return -0.2
		default:
			return -0.5
		}
	})

	outputRoot := filepath.Join(dir, "out")
	res := ProcessTile(testGranule(rasterPath, outputRoot), &BuiltinSegmenter{})

	if res.Error != "OK" {
		t.Fatalf("expecting OK, actual %v", res.Error)
	}
	if res.Stats == nil {
		t.Fatal("expecting statistics")
	}
	if res.Stats.TotalVegetationPixels != 64*64 {
		t.Errorf("expecting %v vegetation pixels, actual %v", 64*64, res.Stats.TotalVegetationPixels)
	}
	if res.Stats.HealthyPixels != 1024 || res.Stats.StressedPixels != 1024 ||
		res.Stats.DecliningPixels != 1024 || res.Stats.DeadPixels != 1024 {
		t.Errorf("unexpected counts: %+v", res.Stats)
	}

	if res.OutputDir != filepath.Join(outputRoot, "tile_0003") {
		t.Errorf("unexpected output dir %v", res.OutputDir)
	}

	// persisted record matches the wire stats
	src, err := os.ReadFile(filepath.Join(res.OutputDir, TileStatsFileName))
	if err != nil {
		t.Fatalf("statistics.json missing: %v", err)
	}
	record := &tileservice.TileRecord{}
	if err := json.Unmarshal(src, record); err != nil {
		t.Fatalf("statistics.json corrupt: %v", err)
	}
	if record.TileID != 3 || record.Status != "completed" || record.Statistics != *res.Stats {
		t.Errorf("record mismatch: %+v", record)
	}

	// mask rasters carry the tile window georeferencing
	mask, err := raster.Open(filepath.Join(res.OutputDir, "healthy_mask.bin"))
	if err != nil {
		t.Fatalf("healthy mask missing: %v", err)
	}
	defer mask.Close()

	if mask.Width != 64 || mask.Height != 64 || mask.DataType != raster.TypeByte {
		t.Errorf("mask header mismatch: %+v", mask.Header)
	}
	if mask.Transform != (raster.Transform{400000, 30, 0, 4400000, 0, -30}) {
		t.Errorf("mask transform mismatch: %v", mask.Transform)
	}

	pixels, err := mask.ReadWindowBytes(0, 0, 0, 64, 64)
	if err != nil {
		t.Fatal(err)
	}
	var set int64
	for _, p := range pixels {
		if p == 1 {
			set++
		}
	}
	if set != res.Stats.HealthyPixels {
		t.Errorf("healthy mask has %v pixels set, stats say %v", set, res.Stats.HealthyPixels)
	}
}

func TestProcessTileWindowTransform(t *testing.T) {
	dir := t.TempDir()
	rasterPath := writeTestRaster(t, dir, func(col, row int) float32 {
		return float32(col) / 64.0
	})

	g := testGranule(rasterPath, filepath.Join(dir, "out"))
	g.Window = [4]int{16, 32, 32, 16}

	res := ProcessTile(g, &BuiltinSegmenter{})
	if res.Error != "OK" {
		t.Fatalf("expecting OK, actual %v", res.Error)
	}

	data, err := raster.Open(filepath.Join(res.OutputDir, "ndvi_data.bin"))
	if err != nil {
		t.Fatal(err)
	}
	defer data.Close()

	if data.Width != 32 || data.Height != 16 {
		t.Errorf("window size lost: %+v", data.Header)
	}
	want := raster.Transform{400000 + 16*30, 30, 0, 4400000 - 32*30, 0, -30}
	if data.Transform != want {
		t.Errorf("expecting window transform %v, actual %v", want, data.Transform)
	}
}

func TestProcessTileFailures(t *testing.T) {
	dir := t.TempDir()

	// a raster holding nothing but nodata cannot be normalised
	rasterPath := writeTestRaster(t, dir, func(col, row int) float32 {
		return -9999
	})

	g := testGranule(rasterPath, filepath.Join(dir, "out"))
	res := ProcessTile(g, &BuiltinSegmenter{})
	if res.Error == "OK" || !strings.HasPrefix(res.Error, "normalize:") {
		t.Errorf("expecting a normalize failure, actual %v", res.Error)
	}

	g = testGranule(rasterPath, filepath.Join(dir, "out"))
	g.Operation = "warp"
	res = ProcessTile(g, &BuiltinSegmenter{})
	if !strings.Contains(res.Error, "unknown operation") {
		t.Errorf("expecting unknown operation, actual %v", res.Error)
	}

	g = testGranule(filepath.Join(dir, "missing.bin"), filepath.Join(dir, "out"))
	res = ProcessTile(g, &BuiltinSegmenter{})
	if !strings.HasPrefix(res.Error, "open raster:") {
		t.Errorf("expecting open failure, actual %v", res.Error)
	}

	g = testGranule(rasterPath, filepath.Join(dir, "out"))
	g.Window = [4]int{32, 32, 64, 64}
	res = ProcessTile(g, &BuiltinSegmenter{})
	if !strings.HasPrefix(res.Error, "read window:") {
		t.Errorf("expecting window failure, actual %v", res.Error)
	}
}
