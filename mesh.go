/*
Copyright © 2018 the GridMesh authors.
This file is part of GridMesh.

GridMesh is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

GridMesh is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with GridMesh.  If not, see <http://www.gnu.org/licenses/>.
*/

package gridmesh

import (
	"fmt"
	"math"
	"sort"

	"github.com/ctessum/geom"
	"gonum.org/v1/gonum/floats"
)

// Location is where field values sit on a mesh. Fields built from a
// dataset are always point data.
type Location int

// PointData fields hold one value per mesh point.
const PointData Location = iota

func (Location) String() string { return "point" }

// Point is a mesh vertex. Before spherical projection X, Y and Z hold
// longitude, latitude and elevation.
type Point struct {
	X, Y, Z float64
}

// Field is a named array of values attached to a mesh.
type Field struct {
	Name     string
	Location Location
	Values   []float64
}

// Mesh is a built geometric mesh with its fields.
type Mesh struct {
	Topology MeshTopology

	// Dimensions is the number of points along x, y and z. Unstructured
	// meshes report their point count along x.
	Dimensions [3]int

	// AxisNames holds the coordinates that supplied x, y and z.
	AxisNames [3]string

	// XCoords, YCoords and ZCoords hold the geometry of rectilinear
	// meshes. Unbound axes have the single coordinate 0.
	XCoords, YCoords, ZCoords []float64

	// Origin and Spacing are set for uniform grids, where
	// Origin[i]+j*Spacing[i] is the j-th coordinate along axis i.
	Origin, Spacing [3]float64

	// Points holds the geometry of structured and unstructured meshes,
	// x varying fastest.
	Points []Point

	Fields map[string]*Field

	// Skipped lists requested fields that were left out because their
	// dimensions differ from the other fields.
	Skipped []string

	// Key identifies the dataset and configuration the mesh was built from.
	Key string
}

// FieldNames returns the names of the fields of m in sorted order.
func (m *Mesh) FieldNames() []string {
	o := make([]string, 0, len(m.Fields))
	for name := range m.Fields {
		o = append(o, name)
	}
	sort.Strings(o)
	return o
}

// NumPoints returns the number of vertices of m.
func (m *Mesh) NumPoints() int {
	if m.Topology.Rectilinear() {
		return len(m.XCoords) * len(m.YCoords) * len(m.ZCoords)
	}
	return len(m.Points)
}

// DataRange returns the minimum and maximum of field name.
func (m *Mesh) DataRange(name string) ([2]float64, error) {
	f, ok := m.Fields[name]
	if !ok {
		return [2]float64{}, &MissingFieldError{Name: name}
	}
	if len(f.Values) == 0 {
		return [2]float64{}, fmt.Errorf("gridmesh: field %s is empty", name)
	}
	return [2]float64{floats.Min(f.Values), floats.Max(f.Values)}, nil
}

// Extents returns the [min, max] of the geometry along x, y and z.
func (m *Mesh) Extents() [3][2]float64 {
	var o [3][2]float64
	if m.Topology.Rectilinear() {
		for i, c := range [][]float64{m.XCoords, m.YCoords, m.ZCoords} {
			o[i] = [2]float64{floats.Min(c), floats.Max(c)}
		}
		return o
	}
	for i := range o {
		o[i] = [2]float64{math.Inf(1), math.Inf(-1)}
	}
	for _, p := range m.Points {
		for i, v := range [3]float64{p.X, p.Y, p.Z} {
			o[i][0] = math.Min(o[i][0], v)
			o[i][1] = math.Max(o[i][1], v)
		}
	}
	return o
}

// HorizontalBounds returns the x-y extent of the geometry of m.
func (m *Mesh) HorizontalBounds() *geom.Bounds {
	b := geom.NewBounds()
	if m.Topology.Rectilinear() {
		b.Extend(geom.NewBoundsPoint(geom.Point{X: floats.Min(m.XCoords), Y: floats.Min(m.YCoords)}))
		b.Extend(geom.NewBoundsPoint(geom.Point{X: floats.Max(m.XCoords), Y: floats.Max(m.YCoords)}))
		return b
	}
	for _, p := range m.Points {
		b.Extend(geom.NewBoundsPoint(geom.Point{X: p.X, Y: p.Y}))
	}
	return b
}

// ExplicitPoints returns m as a structured grid. Rectilinear geometry is
// expanded to one point per grid node, x varying fastest. Meshes that
// already have points are returned unchanged.
func (m *Mesh) ExplicitPoints() *Mesh {
	if !m.Topology.Rectilinear() {
		return m
	}
	o := *m
	o.Topology = StructuredGrid
	o.XCoords, o.YCoords, o.ZCoords = nil, nil, nil
	o.Origin, o.Spacing = [3]float64{}, [3]float64{}
	o.Points = make([]Point, 0, m.NumPoints())
	for _, z := range m.ZCoords {
		for _, y := range m.YCoords {
			for _, x := range m.XCoords {
				o.Points = append(o.Points, Point{X: x, Y: y, Z: z})
			}
		}
	}
	return &o
}
