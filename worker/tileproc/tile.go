package tileproc

import (
	"fmt"

	"github.com/rgdonohue/ghost-forest-watcher/raster"
	"github.com/rgdonohue/ghost-forest-watcher/worker/tileservice"
)

func failedStep(step string, err error) *tileservice.Result {
	return &tileservice.Result{Error: fmt.Sprintf("%s: %v", step, err)}
}

// ProcessTile runs the full per-tile computation for one granule and
// returns a wire result. Every failure names the step that broke; a
// panic anywhere in the pipeline becomes a failed result rather than
// killing the worker loop.
func ProcessTile(g *tileservice.TileGranule, seg Segmenter) (res *tileservice.Result) {
	defer func() {
		if r := recover(); r != nil {
			res = &tileservice.Result{Error: fmt.Sprintf("panic processing tile %d: %v", g.TileID, r)}
		}
	}()

	if g.Operation != "classify" {
		return &tileservice.Result{Error: fmt.Sprintf("unknown operation %s", g.Operation)}
	}

	src, err := raster.Open(g.RasterPath)
	if err != nil {
		return failedStep("open raster", err)
	}
	defer src.Close()

	offX, offY, width, height := g.Window[0], g.Window[1], g.Window[2], g.Window[3]
	data, err := src.ReadWindow(0, offX, offY, width, height)
	if err != nil {
		return failedStep("read window", err)
	}

	values, valid := CleanIndex(data, src.NoData)
	tile := &Tile{Width: width, Height: height, Values: values, Valid: valid}

	norm, err := NormalizeRobust(values, valid)
	if err != nil {
		return failedStep("normalize", err)
	}

	vegetation, err := seg.Segment(tile)
	if err != nil {
		return failedStep("segment", err)
	}

	cls := Classify(tile, vegetation, Thresholds{
		Healthy:  g.Config.HealthyThreshold,
		Stressed: g.Config.StressedThreshold,
		Dead:     g.Config.DeadThreshold,
	})

	ramp, err := GradientRGBAPalette(g.Config.Palette)
	if err != nil {
		return failedStep("palette", err)
	}
	rgb := RenderRGB(norm, valid, ramp)

	hdr := raster.Header{
		Width:     width,
		Height:    height,
		Bands:     1,
		NoData:    src.NoData,
		Transform: src.Transform.WindowTransform(offX, offY),
		CRS:       src.CRS,
	}
	outDir, err := WriteArtifacts(g, tile, rgb, cls, hdr)
	if err != nil {
		return failedStep("write artifacts", err)
	}

	stats := cls.Stats
	return &tileservice.Result{Error: "OK", Stats: &stats, OutputDir: outDir}
}
