package utils

import (
	"encoding/json"
	"fmt"
	"image/color"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"
)

var LibexecDir = "."
var EtcDir = "."
var DataDir = "."

type Palette struct {
	Interpolate bool         `json:"interpolate"`
	Colours     []color.RGBA `json:"colours"`
}

type ServiceConfig struct {
	StatusAddress  string `json:"status_address"`
	RunsAPIAddress string `json:"runs_api_address"`
	WorkerExec     string `json:"worker_exec"`
}

// ProcessingConfig controls how the raster is cut into tiles and how
// the worker pool runs.
type ProcessingConfig struct {
	TileSizeMB     float64 `json:"tile_size_mb"`
	OverlapPixels  int     `json:"overlap_pixels"`
	Workers        int     `json:"workers"`
	TimeoutSeconds int     `json:"timeout_seconds"`
	OOMThresholdMB int     `json:"oom_threshold_mb"`
}

// MemBudgetBytes is the per-tile pixel data budget.
func (p *ProcessingConfig) MemBudgetBytes() int64 {
	return int64(p.TileSizeMB * 1024 * 1024)
}

// ClassificationConfig holds the index thresholds separating the
// vegetation health categories. Pixels above HealthyThreshold are
// healthy, pixels at or below DeadThreshold are dead, the two bands in
// between are stressed and declining.
type ClassificationConfig struct {
	HealthyThreshold  float64 `json:"healthy_threshold"`
	StressedThreshold float64 `json:"stressed_threshold"`
	DeadThreshold     float64 `json:"dead_threshold"`
}

// Config is the struct representing the configuration of a processing
// run. Absent fields fall back to defaults matching a mid-size
// workstation.
type Config struct {
	ServiceConfig  ServiceConfig        `json:"service_config"`
	Processing     ProcessingConfig     `json:"processing"`
	Classification ClassificationConfig `json:"classification"`
	Palette        *Palette             `json:"palette"`
}

const (
	DefaultTileSizeMB     = 50.0
	DefaultOverlapPixels  = 64
	DefaultTimeoutSeconds = 300
)

// DefaultWorkers leaves half the cores to the rest of the system and
// never exceeds four workers.
func DefaultWorkers() int {
	n := runtime.NumCPU() / 2
	if n < 1 {
		n = 1
	}
	if n > 4 {
		n = 4
	}
	return n
}

func (config *Config) applyDefaults() {
	if config.Processing.TileSizeMB <= 0 {
		config.Processing.TileSizeMB = DefaultTileSizeMB
	}
	if config.Processing.OverlapPixels <= 0 {
		config.Processing.OverlapPixels = DefaultOverlapPixels
	}
	if config.Processing.Workers <= 0 {
		config.Processing.Workers = DefaultWorkers()
	}
	if config.Processing.TimeoutSeconds <= 0 {
		config.Processing.TimeoutSeconds = DefaultTimeoutSeconds
	}

	if config.Classification.HealthyThreshold == 0 &&
		config.Classification.StressedThreshold == 0 &&
		config.Classification.DeadThreshold == 0 {
		config.Classification = ClassificationConfig{
			HealthyThreshold:  0.1,
			StressedThreshold: -0.1,
			DeadThreshold:     -0.3,
		}
	}

	if len(config.ServiceConfig.WorkerExec) == 0 {
		config.ServiceConfig.WorkerExec = LibexecDir + "/tile-worker"
	}
}

// LoadConfigFile marshalls the config.json document returning an
// instance of a Config variable containing all the values
func (config *Config) LoadConfigFile(configFile string) error {
	*config = Config{}
	if len(configFile) > 0 {
		cfg, err := os.ReadFile(configFile)
		if err != nil {
			return fmt.Errorf("Error while reading config file: %s. Error: %v", configFile, err)
		}

		err = json.Unmarshal(cfg, config)
		if err != nil {
			return fmt.Errorf("Error at JSON parsing config document: %s. Error: %v", configFile, err)
		}
	}

	config.applyDefaults()

	cls := config.Classification
	if !(cls.HealthyThreshold > cls.StressedThreshold && cls.StressedThreshold > cls.DeadThreshold) {
		return fmt.Errorf("Classification thresholds must decrease: healthy %v > stressed %v > dead %v",
			cls.HealthyThreshold, cls.StressedThreshold, cls.DeadThreshold)
	}

	if config.Palette != nil && config.Palette.Colours != nil && len(config.Palette.Colours) < 3 {
		return fmt.Errorf("The colour palette must contain at least 2 colours.")
	}
	return nil
}

func WatchConfig(infoLog, errLog *log.Logger, config *Config, configFile string) {
	// Catch SIGHUP to automatically reload config
	sighup := make(chan os.Signal, 1)
	signal.Notify(sighup, syscall.SIGHUP)
	go func() {
		for {
			select {
			case <-sighup:
				infoLog.Println("Caught SIGHUP, reloading config...")
				err := config.LoadConfigFile(configFile)
				if err != nil {
					errLog.Printf("Error in loading config file: %v\n", err)
				}
			}
		}
	}()
}
