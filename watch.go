package main

/* watch drives one full forest recovery monitoring run. It cuts a
   large vegetation index raster into tiles sized to a fixed memory
   budget, fans the tiles out to a pool of worker subprocesses, and
   folds the per-tile statistics into a single run summary on disk.
   Workers are separate OS processes so a crash or out of memory kill
   while processing one tile fails only that tile. */

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	reuseport "github.com/kavu/go_reuseport"

	proc "github.com/rgdonohue/ghost-forest-watcher/processor"
	"github.com/rgdonohue/ghost-forest-watcher/raster"
	"github.com/rgdonohue/ghost-forest-watcher/utils"
	"github.com/rgdonohue/ghost-forest-watcher/worker/tileservice"
)

var (
	configFile   = flag.String("conf", "", "Config file path.")
	rasterPath   = flag.String("raster", "", "Vegetation index raster to process.")
	boundaryPath = flag.String("boundary", "", "GeoJSON boundary used to prioritise tiles.")
	outputRoot   = flag.String("output", "output", "Output directory for tile artifacts and the run summary.")
	numWorkers   = flag.Int("workers", 0, "Number of worker processes, 0 means the config or CPU based default.")
	timeoutSecs  = flag.Int("timeout", 0, "Per tile timeout in seconds, 0 means the config default.")
	filterExpr   = flag.String("filter", "", "Tile filter expression, e.g. 'priority == 0 && area_km2 > 1'.")
	statusAddr   = flag.String("status", "", "Address to serve live progress on, e.g. :8080.")
	verbose      = flag.Bool("v", false, "Verbose mode for more outputs.")
)

var (
	Error *log.Logger
	Info  *log.Logger
)

func postRunSummary(addr string, summary *proc.RunSummary) {
	body, err := json.Marshal(summary)
	if err != nil {
		Error.Printf("runs api: %v", err)
		return
	}

	resp, err := http.Post(fmt.Sprintf("http://%s/runs", addr), "application/json", bytes.NewReader(body))
	if err != nil {
		Error.Printf("runs api: %v", err)
		return
	}
	resp.Body.Close()
	Info.Printf("run %s posted to %s", summary.RunID, addr)
}

func serveProgress(addr string, progress *proc.Progress) {
	l, err := reuseport.Listen("tcp", addr)
	if err != nil {
		Error.Printf("status listener: %v", err)
		return
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/progress", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		out, _ := json.Marshal(progress)
		w.Write(out)
	})

	Info.Println("Serving progress on", addr)
	if err := http.Serve(l, mux); err != nil {
		Error.Printf("status server: %v", err)
	}
}

func main() {
	Error = log.New(os.Stderr, "GFW: ", log.Ldate|log.Ltime|log.Lshortfile)
	Info = log.New(os.Stdout, "GFW: ", log.Ldate|log.Ltime|log.Lshortfile)

	flag.Parse()

	if len(*rasterPath) == 0 {
		Error.Fatal("-raster is required")
	}

	config := &utils.Config{}
	if err := config.LoadConfigFile(*configFile); err != nil {
		Error.Fatal(err)
	}
	utils.WatchConfig(Info, Error, config, *configFile)

	if *numWorkers > 0 {
		config.Processing.Workers = *numWorkers
	}
	if *timeoutSecs > 0 {
		config.Processing.TimeoutSeconds = *timeoutSecs
	}

	src, err := raster.Open(*rasterPath)
	if err != nil {
		Error.Fatal(err)
	}
	extent := src.Extent()
	src.Close()

	var boundary *proc.Boundary
	if len(*boundaryPath) > 0 {
		boundary, err = proc.LoadBoundary(*boundaryPath)
		if err != nil {
			Error.Fatal(err)
		}
	}

	tiles, err := proc.PlanTiles(extent, config.Processing.MemBudgetBytes(), config.Processing.OverlapPixels, boundary)
	if err != nil {
		Error.Fatal(err)
	}

	filter, err := proc.ParseTileFilter(*filterExpr)
	if err != nil {
		Error.Fatal(err)
	}
	tiles, err = proc.FilterTiles(tiles, filter)
	if err != nil {
		Error.Fatal(err)
	}
	if len(tiles) == 0 {
		Error.Fatal("no tiles to process")
	}

	Info.Printf("%dx%d raster, %d tiles, %d workers", extent.Width, extent.Height, len(tiles), config.Processing.Workers)

	if err := os.MkdirAll(*outputRoot, 0755); err != nil {
		Error.Fatal(err)
	}

	pool, err := tileservice.CreateProcessPool(config.Processing.Workers, config.ServiceConfig.WorkerExec, *verbose)
	if err != nil {
		Error.Fatal(err)
	}

	if config.Processing.OOMThresholdMB > 0 {
		mon := tileservice.NewOOMMonitor("tile-worker", config.Processing.OOMThresholdMB*1024, *verbose)
		go func() {
			if err := mon.StartMonitorLoop(); err != nil {
				Error.Printf("oom monitor: %v", err)
			}
		}()
	}

	progress := proc.NewProgress(len(tiles))
	if len(*statusAddr) > 0 {
		go serveProgress(*statusAddr, progress)
	} else if len(config.ServiceConfig.StatusAddress) > 0 {
		go serveProgress(config.ServiceConfig.StatusAddress, progress)
	}

	ctx, cancel := context.WithCancel(context.Background())
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		Info.Println("Caught signal, cancelling dispatch...")
		cancel()
	}()

	granuleConfig := tileservice.GranuleConfig{
		HealthyThreshold:  config.Classification.HealthyThreshold,
		StressedThreshold: config.Classification.StressedThreshold,
		DeadThreshold:     config.Classification.DeadThreshold,
		Palette:           config.Palette,
	}

	timeout := time.Duration(config.Processing.TimeoutSeconds) * time.Second
	dispatcher := proc.NewTileDispatcher(pool, 2*config.Processing.Workers, timeout)

	t0 := time.Now()
	results := dispatcher.Dispatch(ctx, *rasterPath, *outputRoot, tiles, granuleConfig, progress)

	summary := proc.NewRunSummary(results, *outputRoot)
	if err := summary.Write(*outputRoot); err != nil {
		Error.Fatal(err)
	}

	if len(config.ServiceConfig.RunsAPIAddress) > 0 {
		postRunSummary(config.ServiceConfig.RunsAPIAddress, summary)
	}

	ps := summary.ProcessingSummary
	agg := summary.AggregatedStatistics
	Info.Printf("run %s: %d of %d tiles completed (%.1f%%) in %v",
		summary.RunID, ps.CompletedTiles, ps.TotalTiles, ps.SuccessRate, time.Since(t0))
	Info.Printf("vegetation health over %.2f km2: healthy %.1f%%, stressed %.1f%%, declining %.1f%%, dead %.1f%%",
		ps.TotalAreaKm2, agg.HealthyPercent, agg.StressedPercent, agg.DecliningPercent, agg.DeadPercent)

	if ps.FailedTiles > 0 {
		Error.Printf("%d tiles failed", ps.FailedTiles)
		os.Exit(1)
	}
}
