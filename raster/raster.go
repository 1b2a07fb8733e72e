// Package raster reads and writes flat binary rasters with YAML sidecar
// headers. The data file holds band-sequential samples in little endian
// byte order; the sidecar carries the grid shape, the affine transform
// and the coordinate reference system so that any window cut from the
// raster can be placed back into geographic space.
package raster

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v2"
)

const (
	TypeByte    = "Byte"
	TypeFloat32 = "Float32"
)

const SizeofFloat32 = 4

// Header describes one raster file. It is persisted as the YAML sidecar
// next to the data file.
type Header struct {
	Width     int       `yaml:"width"`
	Height    int       `yaml:"height"`
	Bands     int       `yaml:"bands"`
	DataType  string    `yaml:"data_type"`
	NoData    float64   `yaml:"no_data"`
	Transform Transform `yaml:"transform,flow"`
	CRS       string    `yaml:"crs"`
}

// Extent is the read-only description of the addressable pixel space of
// a raster, as consumed by the tile planner.
type Extent struct {
	Width     int
	Height    int
	Bands     int
	DataType  string
	NoData    float64
	Transform Transform
	CRS       string
}

// PixelSize returns the per-pixel byte width of one band.
func (e *Extent) PixelSize() (int, error) {
	return dataSize(e.DataType)
}

func dataSize(dataType string) (int, error) {
	switch dataType {
	case TypeByte:
		return 1, nil
	case TypeFloat32:
		return SizeofFloat32, nil
	default:
		return -1, fmt.Errorf("unsupported raster type %s", dataType)
	}
}

func headerPath(dataPath string) string {
	ext := filepath.Ext(dataPath)
	return strings.TrimSuffix(dataPath, ext) + ".yaml"
}

// File is an open raster data file plus its parsed header.
type File struct {
	Header
	f *os.File
}

// Open opens a raster data file read-only and parses its sidecar header.
func Open(dataPath string) (*File, error) {
	src, err := os.ReadFile(headerPath(dataPath))
	if err != nil {
		return nil, fmt.Errorf("raster header: %v", err)
	}

	var hdr Header
	err = yaml.Unmarshal(src, &hdr)
	if err != nil {
		return nil, fmt.Errorf("raster header %s: %v", headerPath(dataPath), err)
	}

	if hdr.Width <= 0 || hdr.Height <= 0 {
		return nil, fmt.Errorf("raster header %s: invalid dimensions %dx%d", headerPath(dataPath), hdr.Width, hdr.Height)
	}
	if hdr.Bands <= 0 {
		hdr.Bands = 1
	}
	if _, err := dataSize(hdr.DataType); err != nil {
		return nil, err
	}

	f, err := os.Open(dataPath)
	if err != nil {
		return nil, err
	}

	return &File{Header: hdr, f: f}, nil
}

func (r *File) Close() error {
	return r.f.Close()
}

// Extent returns the read-only pixel space description for planning.
func (r *File) Extent() *Extent {
	return &Extent{
		Width:     r.Width,
		Height:    r.Height,
		Bands:     r.Bands,
		DataType:  r.DataType,
		NoData:    r.NoData,
		Transform: r.Transform,
		CRS:       r.CRS,
	}
}

func (r *File) checkWindow(band, offX, offY, width, height int) error {
	if band < 0 || band >= r.Bands {
		return fmt.Errorf("band %d out of range [0, %d)", band, r.Bands)
	}
	if offX < 0 || offY < 0 || width <= 0 || height <= 0 ||
		offX+width > r.Width || offY+height > r.Height {
		return fmt.Errorf("window (%d, %d, %d, %d) outside raster %dx%d",
			offX, offY, width, height, r.Width, r.Height)
	}
	return nil
}

// ReadWindow reads exactly the requested pixel window of one Float32
// band. Rows are read with one seek each so only the window, not the
// full raster, is ever resident.
func (r *File) ReadWindow(band, offX, offY, width, height int) ([]float32, error) {
	if r.DataType != TypeFloat32 {
		return nil, fmt.Errorf("ReadWindow: raster type is %s, want %s", r.DataType, TypeFloat32)
	}
	if err := r.checkWindow(band, offX, offY, width, height); err != nil {
		return nil, err
	}

	bandOffset := int64(band) * int64(r.Width) * int64(r.Height) * SizeofFloat32
	out := make([]float32, width*height)
	rowBuf := make([]byte, width*SizeofFloat32)

	for row := 0; row < height; row++ {
		fileOff := bandOffset + (int64(offY+row)*int64(r.Width)+int64(offX))*SizeofFloat32
		_, err := r.f.ReadAt(rowBuf, fileOff)
		if err != nil {
			return nil, fmt.Errorf("reading row %d of window: %v", row, err)
		}

		for col := 0; col < width; col++ {
			bits := binary.LittleEndian.Uint32(rowBuf[col*SizeofFloat32:])
			out[row*width+col] = math.Float32frombits(bits)
		}
	}

	return out, nil
}

// ReadWindowBytes is the Byte raster counterpart of ReadWindow.
func (r *File) ReadWindowBytes(band, offX, offY, width, height int) ([]uint8, error) {
	if r.DataType != TypeByte {
		return nil, fmt.Errorf("ReadWindowBytes: raster type is %s, want %s", r.DataType, TypeByte)
	}
	if err := r.checkWindow(band, offX, offY, width, height); err != nil {
		return nil, err
	}

	bandOffset := int64(band) * int64(r.Width) * int64(r.Height)
	out := make([]uint8, width*height)

	for row := 0; row < height; row++ {
		fileOff := bandOffset + int64(offY+row)*int64(r.Width) + int64(offX)
		_, err := r.f.ReadAt(out[row*width:(row+1)*width], fileOff)
		if err != nil {
			return nil, fmt.Errorf("reading row %d of window: %v", row, err)
		}
	}

	return out, nil
}

func writeHeader(dataPath string, hdr Header) error {
	src, err := yaml.Marshal(&hdr)
	if err != nil {
		return err
	}
	return os.WriteFile(headerPath(dataPath), src, 0644)
}

// WriteFloat32 persists a single-band Float32 raster with its sidecar.
func WriteFloat32(dataPath string, hdr Header, data []float32) error {
	hdr.DataType = TypeFloat32
	if hdr.Bands <= 0 {
		hdr.Bands = 1
	}
	if len(data) != hdr.Width*hdr.Height*hdr.Bands {
		return fmt.Errorf("WriteFloat32: %d samples for %dx%dx%d raster",
			len(data), hdr.Width, hdr.Height, hdr.Bands)
	}

	buf := make([]byte, len(data)*SizeofFloat32)
	for i, v := range data {
		binary.LittleEndian.PutUint32(buf[i*SizeofFloat32:], math.Float32bits(v))
	}

	err := os.WriteFile(dataPath, buf, 0644)
	if err != nil {
		return err
	}
	return writeHeader(dataPath, hdr)
}

// WriteByte persists a single-band Byte raster with its sidecar. Boolean
// masks are stored this way, one byte per pixel.
func WriteByte(dataPath string, hdr Header, data []uint8) error {
	hdr.DataType = TypeByte
	if hdr.Bands <= 0 {
		hdr.Bands = 1
	}
	if len(data) != hdr.Width*hdr.Height*hdr.Bands {
		return fmt.Errorf("WriteByte: %d samples for %dx%dx%d raster",
			len(data), hdr.Width, hdr.Height, hdr.Bands)
	}

	err := os.WriteFile(dataPath, data, 0644)
	if err != nil {
		return err
	}
	return writeHeader(dataPath, hdr)
}
