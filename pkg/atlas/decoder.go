// Package atlas reconstructs 3D voxel coordinates from a tiled 2D
// texture-atlas index buffer.
//
// The atlas stores the slices of a volume as an mx by my grid of nx by ny
// tiles. Tiles are laid out top to bottom in the texture while the volume's Z
// axis grows from the bottom row upwards, so the row order is flipped when a
// texel is mapped back to its slice.
package atlas

import (
	"errors"
	"fmt"
	"math"

	"cardiacxr/internal/models"
)

// ErrMalformedDataset is wrapped by every parse and decode failure.
var ErrMalformedDataset = errors.New("malformed dataset")

// Voxel is an integer volume coordinate recovered from one atlas texel.
type Voxel struct {
	X, Y, Z int
}

// Validate checks the dimension fields and the index buffer layout.
func Validate(ds *models.VolumetricDataset) error {
	if ds == nil {
		return fmt.Errorf("%w: dataset is nil", ErrMalformedDataset)
	}
	if ds.MX <= 0 || ds.MY <= 0 || ds.NX <= 0 || ds.NY <= 0 {
		return fmt.Errorf("%w: dimensions must be positive (mx=%d my=%d nx=%d ny=%d)",
			ErrMalformedDataset, ds.MX, ds.MY, ds.NX, ds.NY)
	}
	if len(ds.FullTexelIndex)%models.TupleSize != 0 {
		return fmt.Errorf("%w: index length %d is not a multiple of %d",
			ErrMalformedDataset, len(ds.FullTexelIndex), models.TupleSize)
	}
	return nil
}

// DecodeVoxels maps every texel with a positive weight to its voxel, in
// buffer order.
func DecodeVoxels(ds *models.VolumetricDataset) ([]Voxel, error) {
	if err := Validate(ds); err != nil {
		return nil, err
	}

	atlasWidth := float64(ds.MX * ds.NX)
	atlasHeight := float64(ds.MY * ds.NY)

	voxels := make([]Voxel, 0, ds.TexelCount())
	for i := 0; i < len(ds.FullTexelIndex); i += models.TupleSize {
		atlasX := ds.FullTexelIndex[i]
		atlasY := ds.FullTexelIndex[i+1]
		weight := ds.FullTexelIndex[i+3]

		if math.IsNaN(atlasX) || math.IsInf(atlasX, 0) ||
			math.IsNaN(atlasY) || math.IsInf(atlasY, 0) ||
			math.IsNaN(weight) || math.IsInf(weight, 0) {
			return nil, fmt.Errorf("%w: texel %d has non-finite entries", ErrMalformedDataset, i/models.TupleSize)
		}

		// Empty texel
		if weight <= 0 {
			continue
		}

		ax := math.Floor(atlasX)
		ay := math.Floor(atlasY)
		if ax < 0 || ay < 0 || ax >= atlasWidth || ay >= atlasHeight {
			return nil, fmt.Errorf("%w: texel %d at (%g, %g) lies outside the %gx%g atlas",
				ErrMalformedDataset, i/models.TupleSize, atlasX, atlasY, atlasWidth, atlasHeight)
		}

		voxels = append(voxels, texelToVoxel(int(ax), int(ay), ds))
	}

	return voxels, nil
}

func texelToVoxel(atlasX, atlasY int, ds *models.VolumetricDataset) Voxel {
	sliceCol := atlasX / ds.NX
	sliceRow := atlasY / ds.NY
	sliceIndex := (ds.MY-1-sliceRow)*ds.MX + sliceCol

	localX := atlasX % ds.NX
	localY := atlasY % ds.NY

	return Voxel{
		X: localX,
		Y: ds.NY - 1 - localY,
		Z: sliceIndex,
	}
}

// Normalize maps a voxel into [-0.5, 0.5] on every axis.
func Normalize(v Voxel, ds *models.VolumetricDataset) models.Point3D {
	return models.Point3D{
		X: float64(v.X)/float64(ds.NX) - 0.5,
		Y: float64(v.Y)/float64(ds.NY) - 0.5,
		Z: float64(v.Z)/float64(ds.Depth()) - 0.5,
	}
}

// Decode reconstructs the normalized point sequence of ds and keeps every
// sampleStride-th point. It performs no I/O.
func Decode(ds *models.VolumetricDataset, sampleStride int) ([]models.Point3D, error) {
	if sampleStride < 1 {
		return nil, fmt.Errorf("sample stride must be at least 1, got %d", sampleStride)
	}

	voxels, err := DecodeVoxels(ds)
	if err != nil {
		return nil, err
	}

	points := make([]models.Point3D, 0, (len(voxels)+sampleStride-1)/sampleStride)
	for i := 0; i < len(voxels); i += sampleStride {
		points = append(points, Normalize(voxels[i], ds))
	}
	return points, nil
}
