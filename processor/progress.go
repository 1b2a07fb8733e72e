package processor

import (
	"encoding/json"
	"log"
	"sync"
	"time"
)

// Progress tracks live counts of a dispatch. It is safe for concurrent
// use by the dispatcher goroutines and by a status endpoint reading
// snapshots.
type Progress struct {
	mu        sync.Mutex
	total     int
	completed int
	failed    int
	started   time.Time
	lastLog   int
}

type ProgressSnapshot struct {
	TotalTiles     int     `json:"total_tiles"`
	CompletedTiles int     `json:"completed_tiles"`
	FailedTiles    int     `json:"failed_tiles"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
}

func NewProgress(total int) *Progress {
	return &Progress{total: total, started: time.Now()}
}

// Record accounts one finished tile and logs a line roughly every
// tenth of the run.
func (p *Progress) Record(res *TileResult) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if res.Status == TileCompleted {
		p.completed++
	} else {
		p.failed++
	}

	done := p.completed + p.failed
	step := p.total / 10
	if step < 1 {
		step = 1
	}
	if done-p.lastLog >= step || done == p.total {
		p.lastLog = done
		log.Printf("tile dispatch: %v of %v done", done, p.total)
	}
}

func (p *Progress) Snapshot() ProgressSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return ProgressSnapshot{
		TotalTiles:     p.total,
		CompletedTiles: p.completed,
		FailedTiles:    p.failed,
		ElapsedSeconds: time.Since(p.started).Seconds(),
	}
}

// MarshalJSON lets a status handler serve the snapshot directly.
func (p *Progress) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Snapshot())
}
