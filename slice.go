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
	"encoding/json"
	"fmt"
	"math"

	"github.com/spf13/cast"
)

// SliceKind distinguishes the two kinds of slice.
type SliceKind int

const (
	// RangeSlice keeps a dimension, restricted to [Start, Stop) by Step.
	RangeSlice SliceKind = iota
	// CutSlice collapses a dimension to the single element at Index.
	CutSlice
)

// SliceSpec is a declarative sub-selection along one dimension.
type SliceSpec struct {
	Kind              SliceKind
	Start, Stop, Step int
	Index             int

	// twoElement records that the step was omitted in the source
	// configuration, so that it is omitted again when written out.
	twoElement bool
}

// Range returns a slice keeping indices start, start+step, ... below stop.
func Range(start, stop, step int) (SliceSpec, error) {
	switch {
	case start < 0:
		return SliceSpec{}, fmt.Errorf("range start %d is negative", start)
	case start >= stop:
		return SliceSpec{}, fmt.Errorf("range start %d is not before stop %d", start, stop)
	case step < 1:
		return SliceSpec{}, fmt.Errorf("range step %d is less than 1", step)
	}
	return SliceSpec{Kind: RangeSlice, Start: start, Stop: stop, Step: step}, nil
}

// InclusiveRange returns a slice keeping indices first through last, as
// selected by a range slider.
func InclusiveRange(first, last, step int) (SliceSpec, error) {
	return Range(first, last+1, step)
}

// Cut returns a slice collapsing a dimension to index.
func Cut(index int) (SliceSpec, error) {
	if index < 0 {
		return SliceSpec{}, fmt.Errorf("cut index %d is negative", index)
	}
	return SliceSpec{Kind: CutSlice, Index: index}, nil
}

// check returns an error if s could not select anything from any
// dimension, e.g. a literal with a zero step.
func (s SliceSpec) check() error {
	if s.Kind == CutSlice {
		_, err := Cut(s.Index)
		return err
	}
	_, err := Range(s.Start, s.Stop, s.Step)
	return err
}

// fits returns an error if s selects outside of a dimension of length size.
func (s SliceSpec) fits(size int) error {
	if s.Kind == CutSlice {
		if s.Index >= size {
			return fmt.Errorf("cut index %d is out of range [0, %d)", s.Index, size)
		}
		return nil
	}
	if s.Stop > size {
		return fmt.Errorf("range stop %d is beyond the dimension size %d", s.Stop, size)
	}
	return nil
}

// Indices returns the selected indices in order.
func (s SliceSpec) Indices() []int {
	if s.Kind == CutSlice {
		return []int{s.Index}
	}
	o := make([]int, 0, s.Len())
	if s.Step < 1 {
		return o
	}
	for i := s.Start; i < s.Stop; i += s.Step {
		o = append(o, i)
	}
	return o
}

// Len returns the number of selected indices.
func (s SliceSpec) Len() int {
	if s.Kind == CutSlice {
		return 1
	}
	if s.Step < 1 || s.Stop <= s.Start {
		return 0
	}
	return (s.Stop - s.Start + s.Step - 1) / s.Step
}

func (s SliceSpec) String() string {
	if s.Kind == CutSlice {
		return fmt.Sprintf("%d", s.Index)
	}
	return fmt.Sprintf("slice(%d,%d,%d)", s.Start, s.Stop, s.Step)
}

// MarshalJSON writes a range as [start, stop, step] and a cut as its index.
func (s SliceSpec) MarshalJSON() ([]byte, error) {
	if s.Kind == CutSlice {
		return json.Marshal(s.Index)
	}
	if s.twoElement {
		return json.Marshal([]int{s.Start, s.Stop})
	}
	return json.Marshal([]int{s.Start, s.Stop, s.Step})
}

// UnmarshalJSON reads the format written by MarshalJSON. A range may omit
// its step, which defaults to 1.
func (s *SliceSpec) UnmarshalJSON(b []byte) error {
	var raw interface{}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case float64:
		i, err := toInt(v)
		if err != nil {
			return err
		}
		cut, err := Cut(i)
		if err != nil {
			return err
		}
		*s = cut
		return nil
	case []interface{}:
		if len(v) != 2 && len(v) != 3 {
			return fmt.Errorf("range needs 2 or 3 elements but has %d", len(v))
		}
		vals := []int{0, 0, 1}
		for i, e := range v {
			n, err := toInt(e)
			if err != nil {
				return err
			}
			vals[i] = n
		}
		r, err := Range(vals[0], vals[1], vals[2])
		if err != nil {
			return err
		}
		r.twoElement = len(v) == 2
		*s = r
		return nil
	default:
		return fmt.Errorf("slice must be an index or a [start, stop, step] array, not %s", b)
	}
}

func toInt(v interface{}) (int, error) {
	if f, ok := v.(float64); ok && f != math.Trunc(f) {
		return 0, fmt.Errorf("%v is not an integer", f)
	}
	return cast.ToIntE(v)
}

// Slices holds the slice to apply to each coordinate, keyed by coordinate
// name.
type Slices map[string]SliceSpec

func (s Slices) clone() Slices {
	if s == nil {
		return nil
	}
	o := make(Slices, len(s))
	for k, v := range s {
		o[k] = v
	}
	return o
}

func (s Slices) equal(o Slices) bool {
	if len(s) != len(o) {
		return false
	}
	for k, v := range s {
		w, ok := o[k]
		if !ok || v.Kind != w.Kind || v.Start != w.Start || v.Stop != w.Stop || v.Step != w.Step || v.Index != w.Index {
			return false
		}
	}
	return true
}

// Selection maps dimension coordinate names to the slice to apply along
// them. Dimensions that do not appear are used whole.
type Selection map[string]SliceSpec

// ResolveSlices turns per-coordinate slices and a time index into the
// selection to apply to the dataset. Only bound axes are resolved: the
// x, y and z coordinates take their slice, if any, and the t coordinate is
// always cut at tIndex. Slices of unbound coordinates are ignored.
func ResolveSlices(d *Dataset, m AxisMapping, slices Slices, tIndex int) (Selection, error) {
	sel := make(Selection)
	for _, a := range SpatialAxes {
		name := m.Get(a)
		if name == "" {
			continue
		}
		s, ok := slices[name]
		if !ok {
			continue
		}
		v, ok := d.Var(name)
		if !ok {
			return nil, &MissingCoordinateError{Axis: a, Name: name}
		}
		if !v.selfIndexed() {
			return nil, configErrorf("slices."+name, "%s is not a dimension coordinate and cannot be sliced", name)
		}
		if err := s.check(); err != nil {
			return nil, configErrorf("slices."+name, "%v", err)
		}
		if err := s.fits(d.DimSize(name)); err != nil {
			return nil, configErrorf("slices."+name, "%v", err)
		}
		sel[name] = s
	}
	if t := m.T; t != "" {
		v, ok := d.Var(t)
		if !ok {
			return nil, &MissingCoordinateError{Axis: AxisT, Name: t}
		}
		if tIndex < 0 || tIndex >= v.Size() {
			return nil, configErrorf("t_index", "%d is out of range [0, %d)", tIndex, v.Size())
		}
		if v.selfIndexed() {
			sel[t] = SliceSpec{Kind: CutSlice, Index: tIndex}
		}
	}
	return sel, nil
}
