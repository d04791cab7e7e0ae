// Package visualization rebuilds the occupancy volume of an atlas dataset
// and renders it as grey-scale slices and projections.
package visualization

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"math"
	"os"
	"path/filepath"

	"cardiacxr/internal/models"
	"cardiacxr/pkg/atlas"
)

// Axis selects the slicing direction.
type Axis string

const (
	AxisX Axis = "x"
	AxisY Axis = "y"
	AxisZ Axis = "z"
)

// ParseAxis accepts x, y or z in either case.
func ParseAxis(s string) (Axis, error) {
	switch s {
	case "x", "X":
		return AxisX, nil
	case "y", "Y":
		return AxisY, nil
	case "z", "Z":
		return AxisZ, nil
	}
	return "", fmt.Errorf("invalid axis: %s (must be x, y, or z)", s)
}

// Viewer holds a dense occupancy volume indexed [z][y][x], Y up.
type Viewer struct {
	// volumeData holds 1 for every occupied voxel
	volumeData []float64

	width  int
	height int
	depth  int
}

// NewViewer decodes every valid texel of ds into a nx x ny x (mx*my) volume.
func NewViewer(ds *models.VolumetricDataset) (*Viewer, error) {
	voxels, err := atlas.DecodeVoxels(ds)
	if err != nil {
		return nil, err
	}
	v := newEmpty(ds.NX, ds.NY, ds.Depth())
	for _, vx := range voxels {
		v.volumeData[v.index(vx.X, vx.Y, vx.Z)] = 1
	}
	return v, nil
}

// NewViewerFromPoints rebuilds a volume of the given size from normalized
// points, such as a strided decode.
func NewViewerFromPoints(points []models.Point3D, width, height, depth int) (*Viewer, error) {
	if width <= 0 || height <= 0 || depth <= 0 {
		return nil, fmt.Errorf("volume dimensions must be positive, got %dx%dx%d", width, height, depth)
	}
	v := newEmpty(width, height, depth)
	for _, p := range points {
		x := cell(p.X, width)
		y := cell(p.Y, height)
		z := cell(p.Z, depth)
		v.volumeData[v.index(x, y, z)] = 1
	}
	return v, nil
}

// cell inverts the normalization of one axis.
func cell(c float64, n int) int {
	i := int(math.Round((c + 0.5) * float64(n)))
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func newEmpty(width, height, depth int) *Viewer {
	return &Viewer{
		volumeData: make([]float64, width*height*depth),
		width:      width,
		height:     height,
		depth:      depth,
	}
}

func (v *Viewer) index(x, y, z int) int {
	return z*v.width*v.height + y*v.width + x
}

// Dimensions returns width, height and depth.
func (v *Viewer) Dimensions() (int, int, int) { return v.width, v.height, v.depth }

// At returns the value of voxel (x, y, z), zero outside the volume.
func (v *Viewer) At(x, y, z int) float64 {
	if x < 0 || y < 0 || z < 0 || x >= v.width || y >= v.height || z >= v.depth {
		return 0
	}
	return v.volumeData[v.index(x, y, z)]
}

// Occupied counts non-zero voxels.
func (v *Viewer) Occupied() int {
	n := 0
	for _, d := range v.volumeData {
		if d != 0 {
			n++
		}
	}
	return n
}

func (v *Viewer) extent(axis Axis) (int, error) {
	switch axis {
	case AxisX:
		return v.width, nil
	case AxisY:
		return v.height, nil
	case AxisZ:
		return v.depth, nil
	}
	return 0, fmt.Errorf("invalid axis: %s (must be x, y, or z)", axis)
}

// plane maps image pixel (u, w) at slice position pos to a voxel. Image rows
// run top to bottom, so the vertical volume axis is flipped.
func (v *Viewer) plane(axis Axis, pos int) (cols, rows int, voxel func(u, w int) (int, int, int)) {
	switch axis {
	case AxisX:
		return v.depth, v.height, func(u, w int) (int, int, int) { return pos, v.height - 1 - w, u }
	case AxisY:
		return v.width, v.depth, func(u, w int) (int, int, int) { return u, pos, v.depth - 1 - w }
	default:
		return v.width, v.height, func(u, w int) (int, int, int) { return u, v.height - 1 - w, pos }
	}
}

func gray(value float64) color.Gray16 {
	return color.Gray16{Y: uint16(math.Max(0, math.Min(65535, value*65535)))}
}

// ExtractSlice extracts a 2D slice from the volume along the specified axis.
func (v *Viewer) ExtractSlice(axis Axis, position int) (*image.Gray16, error) {
	n, err := v.extent(axis)
	if err != nil {
		return nil, err
	}
	if position < 0 || position >= n {
		return nil, fmt.Errorf("position %d outside [0, %d) along %s", position, n, axis)
	}

	cols, rows, voxel := v.plane(axis, position)
	img := image.NewGray16(image.Rect(0, 0, cols, rows))
	for w := 0; w < rows; w++ {
		for u := 0; u < cols; u++ {
			img.SetGray16(u, w, gray(v.At(voxel(u, w))))
		}
	}
	return img, nil
}

// Projection is the maximum-intensity projection along axis.
func (v *Viewer) Projection(axis Axis) (*image.Gray16, error) {
	n, err := v.extent(axis)
	if err != nil {
		return nil, err
	}
	cols, rows, _ := v.plane(axis, 0)
	img := image.NewGray16(image.Rect(0, 0, cols, rows))
	for pos := 0; pos < n; pos++ {
		_, _, voxel := v.plane(axis, pos)
		for w := 0; w < rows; w++ {
			for u := 0; u < cols; u++ {
				g := gray(v.At(voxel(u, w)))
				if g.Y > img.Gray16At(u, w).Y {
					img.SetGray16(u, w, g)
				}
			}
		}
	}
	return img, nil
}

// SaveSlice saves an extracted slice as a JPEG image
func SaveSlice(img image.Image, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	return jpeg.Encode(file, img, &jpeg.Options{Quality: 90})
}

// SaveSliceSequence extracts and saves every slice along axis. Empty slices
// are skipped unless keepEmpty is set. It returns the number of files written.
func (v *Viewer) SaveSliceSequence(axis Axis, outputDir string, keepEmpty bool) (int, error) {
	n, err := v.extent(axis)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return 0, err
	}

	written := 0
	for pos := 0; pos < n; pos++ {
		img, err := v.ExtractSlice(axis, pos)
		if err != nil {
			return written, err
		}
		if !keepEmpty && blank(img) {
			continue
		}
		filename := filepath.Join(outputDir, fmt.Sprintf("slice_%s_%03d.jpg", axis, pos))
		if err := SaveSlice(img, filename); err != nil {
			return written, err
		}
		written++
	}
	return written, nil
}

func blank(img *image.Gray16) bool {
	for i := 0; i < len(img.Pix); i++ {
		if img.Pix[i] != 0 {
			return false
		}
	}
	return true
}
