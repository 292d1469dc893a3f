// Package render rasterizes stroke histories: a translucent on-screen overlay
// for the operator and the native-resolution mask that leaves the process.
package render

import (
	"image"
	"image/draw"
	"math"

	"golang.org/x/image/math/f64"
	"golang.org/x/image/vector"

	"github.com/example/maskpaint/internal/stroke"
)

// Identity is the identity affine transform.
var Identity = f64.Aff3{1, 0, 0, 0, 1, 0}

// Scale returns a transform scaling by sx and sy.
func Scale(sx, sy float64) f64.Aff3 { return f64.Aff3{sx, 0, 0, 0, sy, 0} }

// Mul returns the transform applying b first and then a.
func Mul(a, b f64.Aff3) f64.Aff3 {
	return f64.Aff3{
		a[0]*b[0] + a[1]*b[3],
		a[0]*b[1] + a[1]*b[4],
		a[0]*b[2] + a[1]*b[5] + a[2],
		a[3]*b[0] + a[4]*b[3],
		a[3]*b[1] + a[4]*b[4],
		a[3]*b[2] + a[4]*b[5] + a[5],
	}
}

func apply(m f64.Aff3, p stroke.Point) (float64, float64) {
	return m[0]*p.X + m[1]*p.Y + m[2], m[3]*p.X + m[4]*p.Y + m[5]
}

type vec struct{ x, y float64 }

// brush draws round-capped, round-joined polylines with anti-aliased edges.
// Each stroke is the union of one disc per vertex and one quad per segment;
// every polygon is wound the same way so the rasterizer's clamped coverage
// yields a clean union.
type brush struct {
	z vector.Rasterizer
}

// paint draws s onto dst through m, which maps normalized stroke points to
// dst pixels. width is the full line width in dst pixels.
func (b *brush) paint(dst draw.Image, s stroke.Stroke, m f64.Aff3, width float64, src image.Image) {
	if len(s.Points) == 0 || !(width > 0) {
		return
	}
	r := width / 2
	pts := make([]vec, len(s.Points))
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for i, p := range s.Points {
		x, y := apply(m, p)
		pts[i] = vec{x, y}
		minX, minY = math.Min(minX, x), math.Min(minY, y)
		maxX, maxY = math.Max(maxX, x), math.Max(maxY, y)
	}
	bbox := image.Rect(
		int(math.Floor(minX-r))-1, int(math.Floor(minY-r))-1,
		int(math.Ceil(maxX+r))+1, int(math.Ceil(maxY+r))+1,
	).Intersect(dst.Bounds())
	if bbox.Empty() {
		return
	}
	off := vec{float64(bbox.Min.X), float64(bbox.Min.Y)}
	b.z.Reset(bbox.Dx(), bbox.Dy())
	b.z.DrawOp = draw.Over
	for i, p := range pts {
		p = vec{p.x - off.x, p.y - off.y}
		b.disc(p, r)
		if i == 0 {
			continue
		}
		q := vec{pts[i-1].x - off.x, pts[i-1].y - off.y}
		b.segment(q, p, r)
	}
	b.z.Draw(dst, bbox, src, image.Point{})
}

func (b *brush) disc(c vec, r float64) {
	n := int(math.Ceil(2 * math.Pi * r / 2))
	if n < 12 {
		n = 12
	}
	if n > 128 {
		n = 128
	}
	// Push vertices out so the polygon's edge midpoints sit on the circle.
	rr := r / math.Cos(math.Pi/float64(n))
	poly := make([]vec, n)
	for i := range poly {
		a := 2 * math.Pi * float64(i) / float64(n)
		poly[i] = vec{c.x + rr*math.Cos(a), c.y + rr*math.Sin(a)}
	}
	b.polygon(poly)
}

func (b *brush) segment(p0, p1 vec, r float64) {
	dx, dy := p1.x-p0.x, p1.y-p0.y
	l := math.Hypot(dx, dy)
	if l == 0 {
		return
	}
	nx, ny := -dy/l*r, dx/l*r
	b.polygon([]vec{
		{p0.x + nx, p0.y + ny},
		{p1.x + nx, p1.y + ny},
		{p1.x - nx, p1.y - ny},
		{p0.x - nx, p0.y - ny},
	})
}

// polygon adds a closed path, reversing it when needed so all polygons
// share a positive winding.
func (b *brush) polygon(poly []vec) {
	if len(poly) < 3 {
		return
	}
	var area float64
	for i := range poly {
		j := (i + 1) % len(poly)
		area += poly[i].x*poly[j].y - poly[j].x*poly[i].y
	}
	if area < 0 {
		for i, j := 0, len(poly)-1; i < j; i, j = i+1, j-1 {
			poly[i], poly[j] = poly[j], poly[i]
		}
	}
	b.z.MoveTo(float32(poly[0].x), float32(poly[0].y))
	for _, p := range poly[1:] {
		b.z.LineTo(float32(p.x), float32(p.y))
	}
	b.z.ClosePath()
}
