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

import "fmt"

// Axis is one of the four logical mesh axes.
type Axis int

// Logical axes.
const (
	AxisX Axis = iota
	AxisY
	AxisZ
	AxisT
)

// Axes lists the logical axes in x, y, z, t order.
var Axes = []Axis{AxisX, AxisY, AxisZ, AxisT}

// SpatialAxes lists the axes that carry geometry.
var SpatialAxes = []Axis{AxisX, AxisY, AxisZ}

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisZ:
		return "z"
	case AxisT:
		return "t"
	default:
		return fmt.Sprintf("Axis(%d)", int(a))
	}
}

// ParseAxis returns the axis named s ("x", "y", "z" or "t").
func ParseAxis(s string) (Axis, error) {
	for _, a := range Axes {
		if a.String() == s {
			return a, nil
		}
	}
	return 0, fmt.Errorf("gridmesh: invalid axis %q", s)
}

// AxisMapping binds the logical axes to coordinate names. An empty name
// leaves the axis unbound.
type AxisMapping struct {
	X, Y, Z, T string
}

// Get returns the coordinate bound to a.
func (m AxisMapping) Get(a Axis) string {
	switch a {
	case AxisX:
		return m.X
	case AxisY:
		return m.Y
	case AxisZ:
		return m.Z
	case AxisT:
		return m.T
	}
	return ""
}

// With returns a copy of m with a bound to name.
func (m AxisMapping) With(a Axis, name string) AxisMapping {
	switch a {
	case AxisX:
		m.X = name
	case AxisY:
		m.Y = name
	case AxisZ:
		m.Z = name
	case AxisT:
		m.T = name
	}
	return m
}

// Validate checks that every bound axis names a coordinate of d.
func (m AxisMapping) Validate(d *Dataset) error {
	for _, a := range Axes {
		name := m.Get(a)
		if name == "" {
			continue
		}
		if !d.IsCoordinate(name) {
			return configErrorf(a.String(), "%s is not a coordinate array %v", name, d.Coordinates())
		}
	}
	return nil
}

// AutoMapping derives an axis mapping from the dimensions of field, ordered
// outermost first: four dimensions map to t, z, y, x; two map to y, x; three
// map to t, y, x when the outermost one is time and to z, y, x otherwise.
// Dimensions without a coordinate are left unbound.
func AutoMapping(d *Dataset, c *Classification, field string) AxisMapping {
	var m AxisMapping
	v, ok := d.Var(field)
	if !ok {
		return m
	}
	dims := v.Dims
	var axes []Axis
	switch len(dims) {
	case 4:
		axes = []Axis{AxisT, AxisZ, AxisY, AxisX}
	case 3:
		if isTimeDim(d, c, dims[0]) {
			axes = []Axis{AxisT, AxisY, AxisX}
		} else {
			axes = []Axis{AxisZ, AxisY, AxisX}
		}
	case 2:
		axes = []Axis{AxisY, AxisX}
	default:
		return m
	}
	for i, a := range axes {
		if d.IsCoordinate(dims[i]) {
			m = m.With(a, dims[i])
		}
	}
	return m
}

func isTimeDim(d *Dataset, c *Classification, dim string) bool {
	v, ok := d.Var(dim)
	if !ok {
		return false
	}
	return v.DType.timeLike() || (c != nil && c.Role(dim) == Time)
}
