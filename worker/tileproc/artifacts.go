package tileproc

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rgdonohue/ghost-forest-watcher/raster"
	"github.com/rgdonohue/ghost-forest-watcher/worker/tileservice"
)

const TileStatsFileName = "statistics.json"

// TileDirName returns the per-tile output directory name.
func TileDirName(tileID int) string {
	return fmt.Sprintf("tile_%04d", tileID)
}

func maskBytes(mask []bool) []uint8 {
	out := make([]uint8, len(mask))
	for i, m := range mask {
		if m {
			out[i] = 1
		}
	}
	return out
}

// WriteArtifacts persists everything one tile produces under its own
// directory: the cleaned index raster, the rendered health image, one
// mask raster per category plus vegetation, and the statistics.json
// record summaries are rebuilt from.
func WriteArtifacts(g *tileservice.TileGranule, tile *Tile, rgb []uint8, cls *Classification, hdr raster.Header) (string, error) {
	outDir := filepath.Join(g.OutputRoot, TileDirName(g.TileID))
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return "", err
	}

	dataHdr := hdr
	dataHdr.Bands = 1
	if err := raster.WriteFloat32(filepath.Join(outDir, "ndvi_data.bin"), dataHdr, tile.Values); err != nil {
		return "", fmt.Errorf("index raster: %v", err)
	}

	// the rendered image is stored band sequential like every other
	// raster here, so the interleaved ramp output gets re-packed
	n := len(rgb) / 3
	planes := make([]uint8, len(rgb))
	for i := 0; i < n; i++ {
		planes[i] = rgb[3*i]
		planes[n+i] = rgb[3*i+1]
		planes[2*n+i] = rgb[3*i+2]
	}

	rgbHdr := hdr
	rgbHdr.Bands = 3
	rgbHdr.NoData = 0
	if err := raster.WriteByte(filepath.Join(outDir, "health_rgb.bin"), rgbHdr, planes); err != nil {
		return "", fmt.Errorf("health image: %v", err)
	}

	maskHdr := hdr
	maskHdr.Bands = 1
	maskHdr.NoData = 0
	masks := map[string][]bool{
		"vegetation": cls.Vegetation,
		"healthy":    cls.Healthy,
		"stressed":   cls.Stressed,
		"declining":  cls.Declining,
		"dead":       cls.Dead,
	}
	for name, mask := range masks {
		path := filepath.Join(outDir, name+"_mask.bin")
		if err := raster.WriteByte(path, maskHdr, maskBytes(mask)); err != nil {
			return "", fmt.Errorf("%s mask: %v", name, err)
		}
	}

	record := &tileservice.TileRecord{
		TileID:     g.TileID,
		Status:     "completed",
		Statistics: cls.Stats,
		AreaKm2:    g.AreaKm2,
		Bounds:     g.Bounds,
	}
	out, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(outDir, TileStatsFileName), out, 0644); err != nil {
		return "", err
	}

	return outDir, nil
}
