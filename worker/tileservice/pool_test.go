package tileservice

import (
	"testing"
	"time"
)

func TestAddQueueFull(t *testing.T) {
	pool := &ProcessPool{
		TaskQueue: make(chan *Task, 200),
		ErrorMsg:  make(chan *ErrorMsg),
	}

	for i := 0; i < 191; i++ {
		pool.TaskQueue <- &Task{}
	}

	task := &Task{
		Payload: &TileGranule{TileID: 0},
		Resp:    make(chan *Result, 1),
		Error:   make(chan error, 1),
	}
	pool.AddQueue(task)

	select {
	case err := <-task.Error:
		if err == nil {
			t.Errorf("expecting queue full error")
		}
	case <-time.After(time.Second):
		t.Fatal("no error for a full queue")
	}
}

func TestAddQueue(t *testing.T) {
	pool := &ProcessPool{
		TaskQueue: make(chan *Task, 200),
		ErrorMsg:  make(chan *ErrorMsg),
	}

	task := &Task{
		Payload: &TileGranule{TileID: 7},
		Resp:    make(chan *Result, 1),
		Error:   make(chan error, 1),
	}
	pool.AddQueue(task)

	select {
	case queued := <-pool.TaskQueue:
		if queued.Payload.TileID != 7 {
			t.Errorf("expecting tile 7, actual %v", queued.Payload.TileID)
		}
	case <-time.After(time.Second):
		t.Fatal("task never queued")
	}

	select {
	case err := <-task.Error:
		t.Errorf("unexpected error: %v", err)
	default:
	}
}
