package raster

// Transform is an affine geotransform in GDAL parameter order:
// x = t[0] + col*t[1] + row*t[2]
// y = t[3] + col*t[4] + row*t[5]
type Transform [6]float64

func (t Transform) Apply(col, row float64) (float64, float64) {
	x := t[0] + col*t[1] + row*t[2]
	y := t[3] + col*t[4] + row*t[5]
	return x, y
}

// WindowTransform derives the transform of a pixel window whose origin
// sits at (offX, offY) in the parent raster.
func (t Transform) WindowTransform(offX, offY int) Transform {
	x0, y0 := t.Apply(float64(offX), float64(offY))
	return Transform{x0, t[1], t[2], y0, t[4], t[5]}
}

// WindowBounds returns [minX, minY, maxX, maxY] of a pixel window.
func (t Transform) WindowBounds(offX, offY, width, height int) [4]float64 {
	x0, y0 := t.Apply(float64(offX), float64(offY))
	x1, y1 := t.Apply(float64(offX+width), float64(offY+height))

	if x0 > x1 {
		x0, x1 = x1, x0
	}
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	return [4]float64{x0, y0, x1, y1}
}
