package pose

import (
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
)

// LineThrough returns the homogeneous line through p and q. The result is
// zero when the points coincide.
func LineThrough(p, q r2.Point) r3.Vector {
	return r3.Vector{X: p.X, Y: p.Y, Z: 1}.Cross(r3.Vector{X: q.X, Y: q.Y, Z: 1})
}

// MarkerFromVertices builds a marker whose edge lines run exactly through
// consecutive vertices.
func MarkerFromVertices(dir int, vertices [4]r2.Point) MarkerInfo {
	m := MarkerInfo{Dir: dir, Vertices: vertices}
	for i := range vertices {
		m.Lines[i] = LineThrough(vertices[i], vertices[(i+1)%4])
	}
	return m
}
