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
	"strings"
	"sync/atomic"

	"github.com/ctessum/sparse"
)

// DType is the element type of a variable as declared by the data source.
type DType string

// Element types understood by the mesh builder.
const (
	Float64    DType = "float64"
	Float32    DType = "float32"
	Int64      DType = "int64"
	Int32      DType = "int32"
	DateTime64 DType = "datetime64"
	Object     DType = "object"
)

// Numeric returns whether values of type t have geometric meaning.
func (t DType) Numeric() bool {
	switch t {
	case Float64, Float32, Int64, Int32:
		return true
	default:
		return false
	}
}

// timeLike returns whether t is a type that can only hold time values.
func (t DType) timeLike() bool { return t == DateTime64 || t == Object }

// AttrKey is a variable attribute consulted by the mesh builder.
type AttrKey string

// Attribute keys. Other attributes are carried through but never interpreted.
const (
	AttrAxis         AttrKey = "axis"
	AttrUnits        AttrKey = "units"
	AttrStandardName AttrKey = "standard_name"
	AttrPositive     AttrKey = "positive"
	AttrCalendar     AttrKey = "calendar"
	AttrBounds       AttrKey = "bounds"
)

// Attrs holds the attributes of a variable.
type Attrs map[string]string

// Get returns the value of attribute k, or "" if it is not set.
func (a Attrs) Get(k AttrKey) string {
	return a[string(k)]
}

// Lookup returns the value of attribute k and whether it is set.
func (a Attrs) Lookup(k AttrKey) (string, bool) {
	v, ok := a[string(k)]
	return v, ok
}

// Variable is a named array in a Dataset.
type Variable struct {
	Name  string
	Dims  []string // dimension names, outermost first
	DType DType
	Attrs Attrs

	// Data holds the values of numeric and datetime64 variables.
	// Datetime values are seconds since the Unix epoch.
	Data *sparse.DenseArray

	// Labels holds the values of object-typed variables, if any.
	Labels []string
}

// Size returns the number of elements in v.
func (v *Variable) Size() int {
	if v.Data == nil {
		return len(v.Labels)
	}
	return len(v.Data.Elements)
}

// selfIndexed returns whether v is a dimension coordinate, i.e. whether its
// only dimension has its own name.
func (v *Variable) selfIndexed() bool {
	return len(v.Dims) == 1 && v.Dims[0] == v.Name
}

// Dataset is an in-memory labeled array dataset: a set of named dimensions,
// coordinate variables and data variables. Datasets are supplied by an
// external collaborator and are treated as read-only by this package.
type Dataset struct {
	dims     map[string]int
	dimOrder []string

	vars     map[string]*Variable
	coords   []string // coordinate names in declaration order
	fields   []string // data variable names in declaration order
	isCoords map[string]bool

	// gen changes whenever the dataset is created or extended.
	gen uint64
}

var generation uint64

func nextGeneration() uint64 { return atomic.AddUint64(&generation, 1) }

// NewDataset returns an empty dataset.
func NewDataset() *Dataset {
	return &Dataset{
		dims:     make(map[string]int),
		vars:     make(map[string]*Variable),
		isCoords: make(map[string]bool),
		gen:      nextGeneration(),
	}
}

// Generation identifies the contents of d. It is unique across datasets
// and changes each time a dimension or variable is added.
func (d *Dataset) Generation() uint64 { return d.gen }

// AddDim declares a dimension of the given size.
func (d *Dataset) AddDim(name string, size int) error {
	if size < 1 {
		return fmt.Errorf("gridmesh: dimension %s has invalid size %d", name, size)
	}
	if _, ok := d.dims[name]; !ok {
		d.dimOrder = append(d.dimOrder, name)
	}
	d.dims[name] = size
	d.gen = nextGeneration()
	return nil
}

// AddCoord adds a coordinate variable to d.
func (d *Dataset) AddCoord(name string, dims []string, dtype DType, data *sparse.DenseArray, attrs Attrs) error {
	v := &Variable{Name: name, Dims: dims, DType: dtype, Data: data, Attrs: attrs}
	if err := d.add(v); err != nil {
		return err
	}
	d.coords = append(d.coords, name)
	d.isCoords[name] = true
	return nil
}

// AddLabelCoord adds an object-typed coordinate whose values are the given
// labels, e.g. preformatted time stamps.
func (d *Dataset) AddLabelCoord(name string, dims []string, labels []string, attrs Attrs) error {
	v := &Variable{Name: name, Dims: dims, DType: Object, Labels: labels, Attrs: attrs}
	if err := d.add(v); err != nil {
		return err
	}
	d.coords = append(d.coords, name)
	d.isCoords[name] = true
	return nil
}

// AddVariable adds a float64 data variable to d.
func (d *Dataset) AddVariable(name string, dims []string, data *sparse.DenseArray, attrs Attrs) error {
	v := &Variable{Name: name, Dims: dims, DType: Float64, Data: data, Attrs: attrs}
	if err := d.add(v); err != nil {
		return err
	}
	d.fields = append(d.fields, name)
	return nil
}

func (d *Dataset) add(v *Variable) error {
	if _, ok := d.vars[v.Name]; ok {
		return fmt.Errorf("gridmesh: variable %s already exists", v.Name)
	}
	if v.Attrs == nil {
		v.Attrs = make(Attrs)
	}
	want := 1
	for _, dim := range v.Dims {
		n, ok := d.dims[dim]
		if !ok {
			return fmt.Errorf("gridmesh: variable %s uses undeclared dimension %s", v.Name, dim)
		}
		want *= n
	}
	if v.Data != nil {
		if len(v.Data.Shape) != len(v.Dims) {
			return fmt.Errorf("gridmesh: variable %s has %d dims but data has shape %v", v.Name, len(v.Dims), v.Data.Shape)
		}
		for i, dim := range v.Dims {
			if v.Data.Shape[i] != d.dims[dim] {
				return fmt.Errorf("gridmesh: variable %s: dimension %s has size %d but data has size %d",
					v.Name, dim, d.dims[dim], v.Data.Shape[i])
			}
		}
	} else if len(v.Labels) != want {
		return fmt.Errorf("gridmesh: variable %s has %d labels but needs %d", v.Name, len(v.Labels), want)
	}
	d.vars[v.Name] = v
	d.gen = nextGeneration()
	return nil
}

// DimSize returns the size of dimension name, or 0 if it does not exist.
func (d *Dataset) DimSize(name string) int { return d.dims[name] }

// Dims returns the dimension names in declaration order.
func (d *Dataset) Dims() []string { return append([]string(nil), d.dimOrder...) }

// Var returns the variable with the given name.
func (d *Dataset) Var(name string) (*Variable, bool) {
	v, ok := d.vars[name]
	return v, ok
}

// Coordinates returns the coordinate names in declaration order.
func (d *Dataset) Coordinates() []string { return append([]string(nil), d.coords...) }

// IsCoordinate returns whether name is a coordinate variable.
func (d *Dataset) IsCoordinate(name string) bool { return d.isCoords[name] }

// DataVariables returns the names of the non-coordinate variables in
// declaration order.
func (d *Dataset) DataVariables() []string { return append([]string(nil), d.fields...) }

// AvailableFields returns the data variables that can be placed on a mesh:
// those that are not cell-bound arrays, whose dimensions all have a 1D
// coordinate, and that have the largest number of dimensions among such
// variables.
func (d *Dataset) AvailableFields() []string {
	coords1d := make(map[string]bool)
	for _, c := range d.coords {
		if len(d.vars[c].Dims) == 1 {
			coords1d[c] = true
		}
	}
	var candidates []string
	maxDims := 0
	for _, name := range d.fields {
		if strings.HasSuffix(name, "_bnds") || strings.HasSuffix(name, "_bounds") {
			continue
		}
		v := d.vars[name]
		ok := true
		for _, dim := range v.Dims {
			if !coords1d[dim] {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}
		if len(v.Dims) > maxDims {
			maxDims = len(v.Dims)
		}
		candidates = append(candidates, name)
	}
	var o []string
	for _, name := range candidates {
		if len(d.vars[name].Dims) == maxDims {
			o = append(o, name)
		}
	}
	return o
}

// values returns the values of v as a flat float slice. Object
// variables are replaced by their indices.
func (v *Variable) values() []float64 {
	if v.Data != nil {
		return v.Data.Elements
	}
	o := make([]float64, len(v.Labels))
	for i := range o {
		o[i] = float64(i)
	}
	return o
}

// at returns the value of v at the given position, where pos maps dimension
// names to indices. Dimensions of v missing from pos are taken at index 0.
func (v *Variable) at(pos map[string]int) float64 {
	if v.Data == nil {
		if len(v.Dims) == 1 {
			return float64(pos[v.Dims[0]])
		}
		return 0
	}
	index := make([]int, len(v.Dims))
	for i, dim := range v.Dims {
		index[i] = pos[dim]
	}
	return v.Data.Get(index...)
}
