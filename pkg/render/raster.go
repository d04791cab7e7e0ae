package render

import (
	"image"
	"image/color"
	"math"
)

// Raster is a depth-buffered RGBA canvas.
type Raster struct {
	Image *image.RGBA
	depth []float64
}

// NewRaster allocates a w x h raster.
func NewRaster(w, h int) *Raster {
	return &Raster{
		Image: image.NewRGBA(image.Rect(0, 0, w, h)),
		depth: make([]float64, w*h),
	}
}

// Size returns the raster dimensions.
func (r *Raster) Size() (int, int) {
	b := r.Image.Bounds()
	return b.Dx(), b.Dy()
}

// Clear fills the canvas with c and resets depth to infinity.
func (r *Raster) Clear(c color.RGBA) {
	pix := r.Image.Pix
	for i := 0; i < len(pix); i += 4 {
		pix[i], pix[i+1], pix[i+2], pix[i+3] = c.R, c.G, c.B, c.A
	}
	for i := range r.depth {
		r.depth[i] = math.Inf(1)
	}
}

// set writes one pixel when depth is nearer than what is stored. Translucent
// colours are blended over the existing pixel.
func (r *Raster) set(x, y int, depth float64, c color.RGBA) bool {
	w, h := r.Size()
	if x < 0 || y < 0 || x >= w || y >= h {
		return false
	}
	i := y*w + x
	if depth >= r.depth[i] {
		return false
	}
	r.depth[i] = depth
	o := i * 4
	pix := r.Image.Pix
	if c.A == 0xff {
		pix[o], pix[o+1], pix[o+2], pix[o+3] = c.R, c.G, c.B, 0xff
		return true
	}
	a := uint32(c.A)
	blend := func(dst, src uint8) uint8 {
		return uint8((uint32(src)*a + uint32(dst)*(0xff-a)) / 0xff)
	}
	pix[o] = blend(pix[o], c.R)
	pix[o+1] = blend(pix[o+1], c.G)
	pix[o+2] = blend(pix[o+2], c.B)
	pix[o+3] = 0xff
	return true
}

// At returns the colour at (x, y).
func (r *Raster) At(x, y int) color.RGBA {
	return r.Image.RGBAAt(x, y)
}

// Splat draws a size x size square centred on (x, y).
func (r *Raster) Splat(x, y, depth, size float64, c color.RGBA) {
	half := math.Max(size, 1) / 2
	x0, x1 := int(math.Floor(x-half)), int(math.Ceil(x+half))
	y0, y1 := int(math.Floor(y-half)), int(math.Ceil(y+half))
	if x1 == x0 {
		x1++
	}
	if y1 == y0 {
		y1++
	}
	for py := y0; py < y1; py++ {
		for px := x0; px < x1; px++ {
			r.set(px, py, depth, c)
		}
	}
}

// Line draws an overlay segment that ignores and does not write depth.
func (r *Raster) Line(x0, y0, x1, y1 float64, c color.RGBA) {
	steps := int(math.Ceil(math.Max(math.Abs(x1-x0), math.Abs(y1-y0))))
	if steps == 0 {
		steps = 1
	}
	w, h := r.Size()
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		px := int(math.Round(x0 + (x1-x0)*t))
		py := int(math.Round(y0 + (y1-y0)*t))
		if px < 0 || py < 0 || px >= w || py >= h {
			continue
		}
		r.Image.SetRGBA(px, py, c)
	}
}

// FillPolygon fills a convex polygon at a constant depth.
func (r *Raster) FillPolygon(pts [][2]float64, depth float64, c color.RGBA) {
	if len(pts) < 3 {
		return
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range pts {
		minX, maxX = math.Min(minX, p[0]), math.Max(maxX, p[0])
		minY, maxY = math.Min(minY, p[1]), math.Max(maxY, p[1])
	}
	w, h := r.Size()
	x0, x1 := clampInt(int(math.Floor(minX)), 0, w), clampInt(int(math.Ceil(maxX)), 0, w)
	y0, y1 := clampInt(int(math.Floor(minY)), 0, h), clampInt(int(math.Ceil(maxY)), 0, h)

	for py := y0; py < y1; py++ {
		for px := x0; px < x1; px++ {
			if inside(pts, float64(px)+0.5, float64(py)+0.5) {
				r.set(px, py, depth, c)
			}
		}
	}
}

// inside tests a point against a convex polygon of either winding.
func inside(pts [][2]float64, x, y float64) bool {
	sign := 0.0
	for i := range pts {
		a, b := pts[i], pts[(i+1)%len(pts)]
		cross := (b[0]-a[0])*(y-a[1]) - (b[1]-a[1])*(x-a[0])
		if cross == 0 {
			continue
		}
		if sign == 0 {
			sign = cross
		} else if (cross > 0) != (sign > 0) {
			return false
		}
	}
	return true
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
