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
	"strings"

	"gonum.org/v1/gonum/floats"
)

// regularTolerance is the fraction of the spacing by which a coordinate
// value may deviate from a uniform progression.
const regularTolerance = 0.01

// DimensionInfo describes the geometry of one coordinate.
type DimensionInfo struct {
	Name  string
	Attrs Attrs
	Role  CoordinateRole
	Dims  []string
	Size  int

	Origin  float64
	Spacing float64 // negative for "positive: down" axes
	Regular bool

	// Bounds holds the Size+1 cell boundaries along the coordinate.
	Bounds []float64

	// Synthetic is true when the coordinate has no usable geometry (it is
	// not a numeric dimension coordinate) and index-based placement was
	// substituted: origin 0, spacing 1 and half-integer bounds.
	Synthetic bool
}

// NewDimensionInfo computes the geometry of coordinate v.
func NewDimensionInfo(v *Variable, role CoordinateRole) *DimensionInfo {
	info := &DimensionInfo{
		Name:  v.Name,
		Attrs: v.Attrs,
		Role:  role,
		Dims:  v.Dims,
		Size:  v.Size(),
	}
	if !v.selfIndexed() || !v.DType.Numeric() || v.Data == nil {
		info.synthesize()
		return info
	}

	values := v.Data.Elements
	n := len(values)
	info.Origin, info.Spacing = progression(values, v.Attrs)
	info.Regular = IsRegular(values)

	info.Bounds = make([]float64, n+1)
	info.Bounds[0] = values[0] - 0.5*info.Spacing
	for i := 1; i < n; i++ {
		info.Bounds[i] = 0.5 * (values[i-1] + values[i])
	}
	info.Bounds[n] = values[n-1] + 0.5*info.Spacing
	return info
}

// progression returns the first value and the mean step of values. The
// step is negated for coordinates that are positive downwards, and is 1
// for a single value.
func progression(values []float64, attrs Attrs) (origin, spacing float64) {
	origin, spacing = values[0], meanStep(values)
	if strings.ToLower(attrs.Get(AttrPositive)) == "down" {
		spacing *= -1
	}
	return origin, spacing
}

// meanStep returns the mean difference between consecutive values, or 1
// for a single value.
func meanStep(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 1
	}
	return (values[n-1] - values[0]) / float64(n-1)
}

func (info *DimensionInfo) synthesize() {
	info.Synthetic = true
	info.Origin = 0
	info.Spacing = 1
	info.Regular = true
	info.Bounds = floats.Span(make([]float64, info.Size+1), -0.5, float64(info.Size)-0.5)
}

// HasExplicitBounds returns whether the coordinate names a cell-bounds
// variable in its attributes.
func (info *DimensionInfo) HasExplicitBounds() bool {
	return info.Attrs.Get(AttrBounds) != ""
}

func (info *DimensionInfo) String() string {
	return fmt.Sprintf("%s: role=%s dims=%v origin=%g spacing=%g regular=%v synthetic=%v",
		info.Name, info.Role, info.Dims, info.Origin, info.Spacing, info.Regular, info.Synthetic)
}

// IsRegular returns whether values progress uniformly from their first to
// their last element, within 1% of the spacing.
func IsRegular(values []float64) bool {
	n := len(values)
	if n < 2 {
		return true
	}
	origin := values[0]
	spacing := (values[n-1] - origin) / float64(n-1)
	tol := regularTolerance * math.Abs(spacing)
	for i, v := range values {
		if !floats.EqualWithinAbs(origin+float64(i)*spacing, v, tol) {
			return false
		}
	}
	return true
}
