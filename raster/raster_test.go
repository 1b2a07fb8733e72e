package raster

import (
	"math"
	"path/filepath"
	"testing"
)

func TestFloat32RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.bin")

	hdr := Header{
		Width:     8,
		Height:    4,
		Bands:     1,
		NoData:    -9999,
		Transform: Transform{100, 0.5, 0, 200, 0, -0.5},
		CRS:       "EPSG:32613",
	}
	data := make([]float32, 8*4)
	for i := range data {
		data[i] = float32(i) * 0.1
	}

	if err := WriteFloat32(path, hdr, data); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	r, err := Open(path)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer r.Close()

	if r.Width != 8 || r.Height != 4 || r.DataType != TypeFloat32 {
		t.Errorf("header mismatch: %+v", r.Header)
	}
	if r.Transform != hdr.Transform {
		t.Errorf("expecting transform %v, actual %v", hdr.Transform, r.Transform)
	}

	full, err := r.ReadWindow(0, 0, 0, 8, 4)
	if err != nil {
		t.Fatalf("full read failed: %v", err)
	}
	for i := range data {
		if full[i] != data[i] {
			t.Fatalf("sample %v: expecting %v, actual %v", i, data[i], full[i])
		}
	}

	win, err := r.ReadWindow(0, 2, 1, 3, 2)
	if err != nil {
		t.Fatalf("window read failed: %v", err)
	}
	for row := 0; row < 2; row++ {
		for col := 0; col < 3; col++ {
			want := data[(row+1)*8+col+2]
			got := win[row*3+col]
			if got != want {
				t.Errorf("window (%v, %v): expecting %v, actual %v", col, row, want, got)
			}
		}
	}
}

func TestWindowChecks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.bin")
	hdr := Header{Width: 4, Height: 4, Bands: 1, Transform: Transform{0, 1, 0, 0, 0, -1}, CRS: "EPSG:4326"}
	if err := WriteFloat32(path, hdr, make([]float32, 16)); err != nil {
		t.Fatal(err)
	}

	r, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	if _, err := r.ReadWindow(0, 2, 2, 4, 4); err == nil {
		t.Errorf("expecting error for window past the edge")
	}
	if _, err := r.ReadWindow(0, -1, 0, 2, 2); err == nil {
		t.Errorf("expecting error for negative offset")
	}
	if _, err := r.ReadWindow(1, 0, 0, 2, 2); err == nil {
		t.Errorf("expecting error for band out of range")
	}
	if _, err := r.ReadWindowBytes(0, 0, 0, 2, 2); err == nil {
		t.Errorf("expecting error reading bytes from a float raster")
	}
}

func TestWindowTransform(t *testing.T) {
	tr := Transform{100, 0.5, 0, 200, 0, -0.5}

	wt := tr.WindowTransform(10, 20)
	x, y := wt.Apply(0, 0)
	px, py := tr.Apply(10, 20)
	if x != px || y != py {
		t.Errorf("window origin: expecting (%v, %v), actual (%v, %v)", px, py, x, y)
	}

	bounds := tr.WindowBounds(0, 0, 10, 10)
	want := [4]float64{100, 195, 105, 200}
	if bounds != want {
		t.Errorf("expecting bounds %v, actual %v", want, bounds)
	}
}

func TestAreaKm2(t *testing.T) {
	// one square degree at the equator
	areaKm2 := AreaKm2([4]float64{0, 0, 1, 1}, "EPSG:4326")
	if math.Abs(areaKm2-12364.0)/12364.0 > 0.01 {
		t.Errorf("expecting ~12364 km2 for 1x1 degree at the equator, actual %v", areaKm2)
	}

	// geodesic area shrinks towards the poles
	polar := AreaKm2([4]float64{0, 80, 1, 81}, "EPSG:4326")
	if polar >= areaKm2/2 {
		t.Errorf("expecting polar cell well below equator cell, actual %v vs %v", polar, areaKm2)
	}

	// projected bounds are planar metres
	utm := AreaKm2([4]float64{500000, 4000000, 501000, 4002000}, "EPSG:32613")
	if utm != 2.0 {
		t.Errorf("expecting 2.0 km2, actual %v", utm)
	}
}

func TestIsGeographicCRS(t *testing.T) {
	geographic := []string{"EPSG:4326", "CRS:84", "WGS84", "+proj=longlat +datum=WGS84"}
	for _, crs := range geographic {
		if !IsGeographicCRS(crs) {
			t.Errorf("expecting %v to be geographic", crs)
		}
	}
	projected := []string{"EPSG:32613", "EPSG:3857"}
	for _, crs := range projected {
		if IsGeographicCRS(crs) {
			t.Errorf("expecting %v to be projected", crs)
		}
	}
}
