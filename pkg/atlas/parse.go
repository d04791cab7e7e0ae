package atlas

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"cardiacxr/internal/models"
)

// payload mirrors the wire record so missing fields can be told apart from
// zero values.
type payload struct {
	FullTexelIndex *[]float64 `json:"fullTexelIndex"`
	MX             *float64   `json:"mx"`
	MY             *float64   `json:"my"`
	NX             *float64   `json:"nx"`
	NY             *float64   `json:"ny"`
}

// Parse decodes a JSON dataset payload. Missing or non-positive dimensions,
// a missing index array and non-JSON input all fail with ErrMalformedDataset.
func Parse(data []byte) (*models.VolumetricDataset, error) {
	var p payload
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDataset, err)
	}

	if p.FullTexelIndex == nil {
		return nil, fmt.Errorf("%w: fullTexelIndex is missing or not an array", ErrMalformedDataset)
	}

	ds := &models.VolumetricDataset{FullTexelIndex: *p.FullTexelIndex}
	dims := []struct {
		name string
		src  *float64
		dst  *int
	}{
		{"mx", p.MX, &ds.MX},
		{"my", p.MY, &ds.MY},
		{"nx", p.NX, &ds.NX},
		{"ny", p.NY, &ds.NY},
	}
	for _, d := range dims {
		v, err := dimension(d.name, d.src)
		if err != nil {
			return nil, err
		}
		*d.dst = v
	}

	if err := Validate(ds); err != nil {
		return nil, err
	}
	return ds, nil
}

func dimension(name string, v *float64) (int, error) {
	if v == nil {
		return 0, fmt.Errorf("%w: missing required dimension %s", ErrMalformedDataset, name)
	}
	if math.IsNaN(*v) || math.IsInf(*v, 0) || *v <= 0 || *v != math.Trunc(*v) || *v > math.MaxInt32 {
		return 0, fmt.Errorf("%w: dimension %s must be a positive integer, got %g", ErrMalformedDataset, name, *v)
	}
	return int(*v), nil
}
