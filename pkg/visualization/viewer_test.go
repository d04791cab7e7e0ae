package visualization

import (
	"os"
	"path/filepath"
	"testing"

	"cardiacxr/internal/models"
	"cardiacxr/pkg/atlas"
)

// sampleDataset has two occupied texels in a 2x2 atlas of 4x4 tiles:
// (5,1) decodes to voxel (1,2,3) and (2,6) to voxel (2,1,0).
func sampleDataset() *models.VolumetricDataset {
	return &models.VolumetricDataset{
		FullTexelIndex: []float64{5, 1, 0, 1, 0, 0, 0, 0, 2, 6, 0, 3},
		MX:             2, MY: 2, NX: 4, NY: 4,
	}
}

// TestNewViewer verifies the occupancy volume matches the decoded voxels
func TestNewViewer(t *testing.T) {
	v, err := NewViewer(sampleDataset())
	if err != nil {
		t.Fatalf("NewViewer failed: %v", err)
	}
	w, h, d := v.Dimensions()
	if w != 4 || h != 4 || d != 4 {
		t.Errorf("Expected 4x4x4 volume, got %dx%dx%d", w, h, d)
	}
	if v.Occupied() != 2 {
		t.Errorf("Expected 2 occupied voxels, got %d", v.Occupied())
	}
	if v.At(1, 2, 3) != 1 || v.At(2, 1, 0) != 1 {
		t.Error("Decoded voxels not set")
	}
	if v.At(0, 0, 0) != 0 || v.At(9, 9, 9) != 0 {
		t.Error("Unexpected occupancy")
	}

	bad := sampleDataset()
	bad.FullTexelIndex = bad.FullTexelIndex[:5]
	if _, err := NewViewer(bad); err == nil {
		t.Error("Expected an error for a malformed dataset")
	}
}

// TestViewerFromPoints verifies normalized points land back in their voxels
func TestViewerFromPoints(t *testing.T) {
	ds := sampleDataset()
	points, err := atlas.Decode(ds, 1)
	if err != nil {
		t.Fatal(err)
	}
	v, err := NewViewerFromPoints(points, ds.NX, ds.NY, ds.Depth())
	if err != nil {
		t.Fatalf("NewViewerFromPoints failed: %v", err)
	}
	if v.At(1, 2, 3) != 1 || v.At(2, 1, 0) != 1 || v.Occupied() != 2 {
		t.Error("Points did not map back to their voxels")
	}

	if _, err := NewViewerFromPoints(points, 0, 4, 4); err == nil {
		t.Error("Expected an error for zero width")
	}
}

// TestExtractSlice verifies slice geometry and the vertical flip
func TestExtractSlice(t *testing.T) {
	v, err := NewViewer(sampleDataset())
	if err != nil {
		t.Fatal(err)
	}

	img, err := v.ExtractSlice(AxisZ, 3)
	if err != nil {
		t.Fatalf("Failed to extract Z slice: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 4 || b.Dy() != 4 {
		t.Errorf("Expected 4x4 Z slice, got %dx%d", b.Dx(), b.Dy())
	}
	// Voxel y=2 is image row 4-1-2 = 1
	if img.Gray16At(1, 1).Y != 65535 {
		t.Errorf("Expected occupied pixel at (1,1), got %d", img.Gray16At(1, 1).Y)
	}
	if img.Gray16At(1, 2).Y != 0 {
		t.Error("Unexpected occupied pixel at (1,2)")
	}

	imgX, err := v.ExtractSlice(AxisX, 2)
	if err != nil {
		t.Fatalf("Failed to extract X slice: %v", err)
	}
	// X slices are depth wide; voxel (2,1,0) sits at column 0, row 2
	if imgX.Gray16At(0, 2).Y != 65535 {
		t.Error("X slice misses voxel (2,1,0)")
	}

	for _, tc := range []struct {
		axis Axis
		pos  int
	}{{AxisZ, 4}, {AxisY, -1}, {Axis("w"), 0}} {
		if _, err := v.ExtractSlice(tc.axis, tc.pos); err == nil {
			t.Errorf("Expected error for axis %q position %d", tc.axis, tc.pos)
		}
	}
}

func TestProjection(t *testing.T) {
	v, err := NewViewer(sampleDataset())
	if err != nil {
		t.Fatal(err)
	}
	img, err := v.Projection(AxisZ)
	if err != nil {
		t.Fatalf("Projection failed: %v", err)
	}
	lit := 0
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			if img.Gray16At(x, y).Y > 0 {
				lit++
			}
		}
	}
	if lit != 2 {
		t.Errorf("Expected 2 lit pixels in the projection, got %d", lit)
	}
}

func TestParseAxis(t *testing.T) {
	for in, want := range map[string]Axis{"x": AxisX, "Y": AxisY, "z": AxisZ} {
		got, err := ParseAxis(in)
		if err != nil || got != want {
			t.Errorf("ParseAxis(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseAxis("q"); err == nil {
		t.Error("Expected error for axis q")
	}
}

// TestSaveSliceSequence verifies that slices are written to disk
func TestSaveSliceSequence(t *testing.T) {
	v, err := NewViewer(sampleDataset())
	if err != nil {
		t.Fatal(err)
	}
	dir := filepath.Join(t.TempDir(), "slices")

	n, err := v.SaveSliceSequence(AxisZ, dir, false)
	if err != nil {
		t.Fatalf("Failed to save slice sequence: %v", err)
	}
	if n != 2 {
		t.Errorf("Expected 2 non-empty slices, wrote %d", n)
	}
	for _, name := range []string{"slice_z_000.jpg", "slice_z_003.jpg"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("Expected %s: %v", name, err)
		}
	}

	all, err := v.SaveSliceSequence(AxisY, filepath.Join(t.TempDir(), "all"), true)
	if err != nil {
		t.Fatal(err)
	}
	if all != 4 {
		t.Errorf("Expected 4 slices with keepEmpty, wrote %d", all)
	}
}
