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

import "math"

// Default sphere parameters: the Earth's radius in km and no vertical
// exaggeration.
const (
	DefaultRadius        = 6378.0
	DefaultVerticalScale = 1.0
)

// Project places a point given as longitude and latitude in degrees and an
// elevation onto or above a sphere of the given radius. Elevations are
// multiplied by verticalScale. A zero elevation is placed exactly at the
// radius. Poles are not special-cased.
func Project(lon, lat, elevation, radius, verticalScale float64) Point {
	theta := lon * math.Pi / 180
	phi := (90 - lat) * math.Pi / 180
	rho := radius
	if elevation != 0 {
		rho = elevation*verticalScale + radius
	}
	return Point{
		X: rho * math.Sin(phi) * math.Cos(theta),
		Y: rho * math.Sin(phi) * math.Sin(theta),
		Z: rho * math.Cos(phi),
	}
}

// ProjectMesh returns a copy of m with every point projected onto a sphere.
// Rectilinear meshes are first expanded to explicit points, so the result
// is always a structured grid or unstructured cells. The result has its own
// field map but shares field values with m.
func ProjectMesh(m *Mesh, radius, verticalScale float64) *Mesh {
	src := m.ExplicitPoints()
	o := *src
	o.Points = make([]Point, len(src.Points))
	for i, p := range src.Points {
		o.Points[i] = Project(p.X, p.Y, p.Z, radius, verticalScale)
	}
	o.Fields = make(map[string]*Field, len(src.Fields))
	for name, f := range src.Fields {
		o.Fields[name] = f
	}
	return &o
}
