package tileproc

import (
	"testing"
)

var testThresholds = Thresholds{Healthy: 0.1, Stressed: -0.1, Dead: -0.3}

func TestClassifyThresholds(t *testing.T) {
	// one pixel per interesting value, including the exact cut points
	values := []float32{0.5, 0.1, 0.0, -0.1, -0.2, -0.3, -0.5}
	valid := []bool{true, true, true, true, true, true, true}
	tile := &Tile{Width: 7, Height: 1, Values: values, Valid: valid}

	cls := Classify(tile, valid, testThresholds)

	expHealthy := []bool{true, false, false, false, false, false, false}
	expStressed := []bool{false, true, true, false, false, false, false}
	expDeclining := []bool{false, false, false, true, true, false, false}
	expDead := []bool{false, false, false, false, false, true, true}

	for i := range values {
		if cls.Healthy[i] != expHealthy[i] || cls.Stressed[i] != expStressed[i] ||
			cls.Declining[i] != expDeclining[i] || cls.Dead[i] != expDead[i] {
			t.Errorf("pixel %v (%v): healthy %v stressed %v declining %v dead %v",
				i, values[i], cls.Healthy[i], cls.Stressed[i], cls.Declining[i], cls.Dead[i])
		}
	}

	if cls.Stats.TotalVegetationPixels != 7 {
		t.Errorf("expecting 7 vegetation pixels, actual %v", cls.Stats.TotalVegetationPixels)
	}
	if cls.Stats.HealthyPixels != 1 || cls.Stats.StressedPixels != 2 ||
		cls.Stats.DecliningPixels != 2 || cls.Stats.DeadPixels != 2 {
		t.Errorf("unexpected counts: %+v", cls.Stats)
	}
}

func TestClassifyExcludesNonVegetation(t *testing.T) {
	values := []float32{0.5, 0.5, -0.5, -0.5}
	valid := []bool{true, true, true, true}
	tile := &Tile{Width: 4, Height: 1, Values: values, Valid: valid}

	vegetation := []bool{true, false, true, false}
	cls := Classify(tile, vegetation, testThresholds)

	if cls.Stats.TotalVegetationPixels != 2 {
		t.Errorf("expecting 2 vegetation pixels, actual %v", cls.Stats.TotalVegetationPixels)
	}
	if cls.Healthy[1] || cls.Dead[3] {
		t.Errorf("non vegetation pixels classified: %+v", cls.Stats)
	}
	if cls.Stats.HealthyPixels != 1 || cls.Stats.DeadPixels != 1 {
		t.Errorf("unexpected counts: %+v", cls.Stats)
	}
}

func TestClassifyMasksDisjoint(t *testing.T) {
	values := []float32{0.3, 0.05, -0.15, -0.4, 0.0, -0.25}
	valid := []bool{true, true, true, true, true, true}
	tile := &Tile{Width: 6, Height: 1, Values: values, Valid: valid}

	cls := Classify(tile, valid, testThresholds)

	for i := range values {
		n := 0
		for _, mask := range [][]bool{cls.Healthy, cls.Stressed, cls.Declining, cls.Dead} {
			if mask[i] {
				n++
			}
		}
		if n != 1 {
			t.Errorf("pixel %v in %v categories", i, n)
		}
	}

	total := cls.Stats.HealthyPixels + cls.Stats.StressedPixels + cls.Stats.DecliningPixels + cls.Stats.DeadPixels
	if total != cls.Stats.TotalVegetationPixels {
		t.Errorf("category counts %v do not close to vegetation total %v", total, cls.Stats.TotalVegetationPixels)
	}
}

func TestBuiltinSegmenter(t *testing.T) {
	seg := &BuiltinSegmenter{}
	if err := seg.Load(); err != nil {
		t.Fatalf("load failed: %v", err)
	}

	tile := &Tile{Width: 3, Height: 1, Values: []float32{0.5, 0, -0.5}, Valid: []bool{true, false, true}}
	vegetation, err := seg.Segment(tile)
	if err != nil {
		t.Fatalf("segment failed: %v", err)
	}

	exp := []bool{true, false, true}
	for i := range exp {
		if vegetation[i] != exp[i] {
			t.Errorf("pixel %v: expecting %v, actual %v", i, exp[i], vegetation[i])
		}
	}
}
