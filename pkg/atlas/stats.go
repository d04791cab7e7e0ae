package atlas

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"cardiacxr/internal/models"
)

// Summary describes a dataset and its decoded points
type Summary struct {
	// Texels is the number of tuples in the index buffer
	Texels int

	// Valid is the number of tuples with a positive weight
	Valid int

	// WeightMean and WeightStdDev describe the weights of valid texels
	WeightMean   float64
	WeightStdDev float64

	// Min and Max bound the normalized points per axis
	Min, Max models.Point3D

	// SliceOccupancy counts valid texels per slice, indexed by Z
	SliceOccupancy []int
}

// Summarize decodes ds and gathers descriptive statistics.
func Summarize(ds *models.VolumetricDataset) (Summary, error) {
	voxels, err := DecodeVoxels(ds)
	if err != nil {
		return Summary{}, err
	}

	s := Summary{
		Texels:         ds.TexelCount(),
		Valid:          len(voxels),
		SliceOccupancy: make([]int, ds.Depth()),
	}

	weights := make([]float64, 0, len(voxels))
	for i := 3; i < len(ds.FullTexelIndex); i += models.TupleSize {
		if w := ds.FullTexelIndex[i]; w > 0 {
			weights = append(weights, w)
		}
	}
	if len(weights) > 0 {
		s.WeightMean, s.WeightStdDev = stat.MeanStdDev(weights, nil)
	}
	if len(weights) == 1 {
		s.WeightStdDev = 0
	}

	if len(voxels) == 0 {
		return s, nil
	}

	xs := make([]float64, len(voxels))
	ys := make([]float64, len(voxels))
	zs := make([]float64, len(voxels))
	for i, v := range voxels {
		p := Normalize(v, ds)
		xs[i], ys[i], zs[i] = p.X, p.Y, p.Z
		s.SliceOccupancy[v.Z]++
	}
	s.Min = models.Point3D{X: floats.Min(xs), Y: floats.Min(ys), Z: floats.Min(zs)}
	s.Max = models.Point3D{X: floats.Max(xs), Y: floats.Max(ys), Z: floats.Max(zs)}

	return s, nil
}
