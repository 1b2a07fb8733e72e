package processor

import (
	"fmt"
	"sort"
	"time"

	"golang.org/x/net/context"

	"github.com/rgdonohue/ghost-forest-watcher/worker/tileservice"
)

// TaskQueue accepts tile tasks for execution. The worker process pool
// implements it; tests substitute their own.
type TaskQueue interface {
	AddQueue(task *tileservice.Task)
}

// TileDispatcher fans planned tiles out to the worker pool and collects
// exactly one result per tile. A tile that times out, errors or is
// cancelled yields a failed result; it never blocks the run and never
// affects any other tile.
type TileDispatcher struct {
	Queue    TaskQueue
	Timeout  time.Duration
	cLimiter *ConcLimiter
}

func NewTileDispatcher(queue TaskQueue, concLimit int, timeout time.Duration) *TileDispatcher {
	if concLimit < 1 {
		concLimit = 1
	}
	return &TileDispatcher{
		Queue:    queue,
		Timeout:  timeout,
		cLimiter: NewConcLimiter(concLimit),
	}
}

// Dispatch submits every tile and blocks until each one has resolved.
// Results come back sorted by tile id.
func (d *TileDispatcher) Dispatch(ctx context.Context, rasterPath, outputRoot string, tiles []*TileDescriptor, cfg tileservice.GranuleConfig, progress *Progress) []*TileResult {
	resChan := make(chan *TileResult, len(tiles))

	for _, tile := range tiles {
		select {
		case <-ctx.Done():
			resChan <- failedResult(tile, "dispatch cancelled")
			continue
		default:
		}

		d.cLimiter.Increase()
		go func(tile *TileDescriptor) {
			defer d.cLimiter.Decrease()
			resChan <- d.dispatchOne(ctx, rasterPath, outputRoot, tile, cfg)
		}(tile)
	}

	results := make([]*TileResult, 0, len(tiles))
	for range tiles {
		res := <-resChan
		if progress != nil {
			progress.Record(res)
		}
		results = append(results, res)
	}

	sort.Slice(results, func(i, j int) bool { return results[i].TileID < results[j].TileID })
	return results
}

func (d *TileDispatcher) dispatchOne(ctx context.Context, rasterPath, outputRoot string, tile *TileDescriptor, cfg tileservice.GranuleConfig) *TileResult {
	granule := &tileservice.TileGranule{
		Operation:  "classify",
		RasterPath: rasterPath,
		OutputRoot: outputRoot,
		TileID:     tile.ID,
		Window:     [4]int{tile.Window.OffX, tile.Window.OffY, tile.Window.Width, tile.Window.Height},
		Bounds:     tile.Bounds,
		AreaKm2:    tile.AreaKm2,
		Config:     cfg,
	}

	task := &tileservice.Task{
		Payload: granule,
		Resp:    make(chan *tileservice.Result, 1),
		Error:   make(chan error, 1),
	}
	d.Queue.AddQueue(task)

	timer := time.NewTimer(d.Timeout)
	defer timer.Stop()

	select {
	case res := <-task.Resp:
		return tileResultFrom(tile, res)
	case err := <-task.Error:
		return failedResult(tile, err.Error())
	case <-timer.C:
		return failedResult(tile, fmt.Sprintf("tile timed out after %v", d.Timeout))
	case <-ctx.Done():
		return failedResult(tile, "dispatch cancelled")
	}
}

func tileResultFrom(tile *TileDescriptor, res *tileservice.Result) *TileResult {
	if res.Error != "OK" {
		return failedResult(tile, res.Error)
	}

	stats := &CategoryStats{}
	if res.Stats != nil {
		stats.TotalVegetationPixels = res.Stats.TotalVegetationPixels
		stats.HealthyPixels = res.Stats.HealthyPixels
		stats.StressedPixels = res.Stats.StressedPixels
		stats.DecliningPixels = res.Stats.DecliningPixels
		stats.DeadPixels = res.Stats.DeadPixels
	}

	return &TileResult{
		TileID:     tile.ID,
		Status:     TileCompleted,
		Statistics: stats,
		AreaKm2:    tile.AreaKm2,
		OutputDir:  res.OutputDir,
	}
}

func failedResult(tile *TileDescriptor, msg string) *TileResult {
	return &TileResult{
		TileID: tile.ID,
		Status: TileFailed,
		Error:  msg,
	}
}
