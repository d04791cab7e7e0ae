// Package stl exports the heart point cloud as a binary STL mesh, one cube
// per point.
package stl

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"gonum.org/v1/gonum/spatial/r3"

	"cardiacxr/internal/models"
)

// Triangle is one STL facet.
type Triangle struct {
	Normal  [3]float32
	Vertex1 [3]float32
	Vertex2 [3]float32
	Vertex3 [3]float32
}

const headerText = "cardiacxr point cloud"

// cubeFaces lists each face as an outward normal and its four corners,
// counter-clockwise seen from outside. Corners are unit-cube signs.
var cubeFaces = []struct {
	normal  r3.Vec
	corners [4]r3.Vec
}{
	{r3.Vec{X: 1}, [4]r3.Vec{{X: 1, Y: -1, Z: -1}, {X: 1, Y: 1, Z: -1}, {X: 1, Y: 1, Z: 1}, {X: 1, Y: -1, Z: 1}}},
	{r3.Vec{X: -1}, [4]r3.Vec{{X: -1, Y: -1, Z: -1}, {X: -1, Y: -1, Z: 1}, {X: -1, Y: 1, Z: 1}, {X: -1, Y: 1, Z: -1}}},
	{r3.Vec{Y: 1}, [4]r3.Vec{{X: -1, Y: 1, Z: -1}, {X: -1, Y: 1, Z: 1}, {X: 1, Y: 1, Z: 1}, {X: 1, Y: 1, Z: -1}}},
	{r3.Vec{Y: -1}, [4]r3.Vec{{X: -1, Y: -1, Z: -1}, {X: 1, Y: -1, Z: -1}, {X: 1, Y: -1, Z: 1}, {X: -1, Y: -1, Z: 1}}},
	{r3.Vec{Z: 1}, [4]r3.Vec{{X: -1, Y: -1, Z: 1}, {X: 1, Y: -1, Z: 1}, {X: 1, Y: 1, Z: 1}, {X: -1, Y: 1, Z: 1}}},
	{r3.Vec{Z: -1}, [4]r3.Vec{{X: -1, Y: -1, Z: -1}, {X: -1, Y: 1, Z: -1}, {X: 1, Y: 1, Z: -1}, {X: 1, Y: -1, Z: -1}}},
}

func f32(v r3.Vec) [3]float32 {
	return [3]float32{float32(v.X), float32(v.Y), float32(v.Z)}
}

// Cube returns the 12 triangles of an axis-aligned cube.
func Cube(center r3.Vec, edge float64) []Triangle {
	half := edge / 2
	out := make([]Triangle, 0, 12)
	for _, f := range cubeFaces {
		var c [4][3]float32
		for i, s := range f.corners {
			c[i] = f32(r3.Add(center, r3.Scale(half, s)))
		}
		n := f32(f.normal)
		out = append(out,
			Triangle{Normal: n, Vertex1: c[0], Vertex2: c[1], Vertex3: c[2]},
			Triangle{Normal: n, Vertex1: c[0], Vertex2: c[2], Vertex3: c[3]},
		)
	}
	return out
}

// FromPoints builds one cube of the given edge per point, in object-local
// units.
func FromPoints(points []models.Point3D, edge float64) []Triangle {
	out := make([]Triangle, 0, len(points)*12)
	for _, p := range points {
		out = append(out, Cube(p.Vec(), edge)...)
	}
	return out
}

// Write encodes triangles as binary STL.
func Write(w io.Writer, triangles []Triangle) error {
	if uint64(len(triangles)) > math.MaxUint32 {
		return fmt.Errorf("too many triangles for STL: %d", len(triangles))
	}
	var header [80]byte
	copy(header[:], headerText)
	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("error writing STL header: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(triangles))); err != nil {
		return fmt.Errorf("error writing triangle count: %w", err)
	}

	var rec struct {
		Triangle
		Attr uint16
	}
	for _, t := range triangles {
		rec.Triangle = t
		if err := binary.Write(w, binary.LittleEndian, &rec); err != nil {
			return fmt.Errorf("error writing triangle: %w", err)
		}
	}
	return nil
}

// Read decodes a binary STL written by Write.
func Read(r io.Reader) ([]Triangle, error) {
	var header [80]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, fmt.Errorf("error reading STL header: %w", err)
	}
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, fmt.Errorf("error reading triangle count: %w", err)
	}
	out := make([]Triangle, 0, n)
	var rec struct {
		Triangle
		Attr uint16
	}
	for i := uint32(0); i < n; i++ {
		if err := binary.Read(r, binary.LittleEndian, &rec); err != nil {
			return nil, fmt.Errorf("error reading triangle %d: %w", i, err)
		}
		out = append(out, rec.Triangle)
	}
	return out, nil
}

// SaveToSTL writes triangles to a binary STL file.
func SaveToSTL(filename string, triangles []Triangle) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	bw := bufio.NewWriter(file)
	if err := Write(bw, triangles); err != nil {
		return err
	}
	return bw.Flush()
}
