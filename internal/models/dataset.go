package models

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// TupleSize is the number of entries per texel in FullTexelIndex.
const TupleSize = 4

// VolumetricDataset is a parsed texture-atlas payload.
type VolumetricDataset struct {
	// FullTexelIndex is the flat texel buffer, grouped as
	// [atlasX, atlasY, flag, weight] tuples
	FullTexelIndex []float64 `json:"fullTexelIndex"`

	// MX and MY are the number of slice columns and rows in the atlas
	MX int `json:"mx"`
	MY int `json:"my"`

	// NX and NY are the width and height of a single slice in pixels
	NX int `json:"nx"`
	NY int `json:"ny"`
}

// TexelCount returns the number of complete tuples in the index buffer.
func (d *VolumetricDataset) TexelCount() int {
	return len(d.FullTexelIndex) / TupleSize
}

// Depth is the number of slices in the reconstructed volume.
func (d *VolumetricDataset) Depth() int {
	return d.MX * d.MY
}

// Point3D is a decoded voxel centre in normalized units, each axis in [-0.5, 0.5].
type Point3D struct {
	X, Y, Z float64
}

// Vec returns the point as an r3 vector.
func (p Point3D) Vec() r3.Vec {
	return r3.Vec{X: p.X, Y: p.Y, Z: p.Z}
}
