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

package gridmeshutil

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/ctessum/sparse"
	"github.com/spatialmodel/gridmesh"
)

// Manifest describes an in-memory dataset. It stands in for the code that
// opens scientific data files, which is outside the scope of this tool.
type Manifest struct {
	// Source and ID identify where the data came from.
	Source, ID string

	Dims   []DimSpec
	Coords []VarSpec
	Fields []VarSpec
}

// DimSpec declares a dimension.
type DimSpec struct {
	Name string
	Size int
}

// VarSpec declares a coordinate or field variable.
type VarSpec struct {
	Name  string
	Dims  []string
	DType string
	Attrs map[string]string

	// Values holds the variable's values in C order. If it is empty and
	// Labels and Times are too, the values are Start, Start+Step, ...
	Values      []float64
	Start, Step float64

	// Labels holds the values of object coordinates.
	Labels []string

	// Times holds the values of datetime64 coordinates in RFC 3339 format.
	Times []string
}

// ReadManifest reads a TOML manifest from path.
func ReadManifest(path string) (*Manifest, error) {
	f, err := os.Open(os.ExpandEnv(path))
	if err != nil {
		return nil, fmt.Errorf("gridmesh: opening dataset manifest: %v", err)
	}
	defer f.Close()
	m := new(Manifest)
	if _, err = toml.DecodeReader(f, m); err != nil {
		return nil, fmt.Errorf("gridmesh: reading dataset manifest %s: %v", path, err)
	}
	if m.Source == "" {
		m.Source = "file"
	}
	if m.ID == "" {
		m.ID = path
	}
	return m, nil
}

// Origin returns where the manifest's data came from.
func (m *Manifest) Origin() *gridmesh.DataOrigin {
	return &gridmesh.DataOrigin{Source: m.Source, ID: m.ID}
}

// Dataset creates the dataset described by m.
func (m *Manifest) Dataset() (*gridmesh.Dataset, error) {
	d := gridmesh.NewDataset()
	for _, dim := range m.Dims {
		if err := d.AddDim(dim.Name, dim.Size); err != nil {
			return nil, err
		}
	}
	for _, c := range m.Coords {
		if len(c.Labels) > 0 {
			if err := d.AddLabelCoord(c.Name, c.Dims, c.Labels, c.Attrs); err != nil {
				return nil, err
			}
			continue
		}
		dtype := gridmesh.DType(c.DType)
		if dtype == "" {
			dtype = gridmesh.Float64
		}
		data, err := c.data(d)
		if err != nil {
			return nil, err
		}
		if err := d.AddCoord(c.Name, c.Dims, dtype, data, c.Attrs); err != nil {
			return nil, err
		}
	}
	for _, f := range m.Fields {
		data, err := f.data(d)
		if err != nil {
			return nil, err
		}
		if err := d.AddVariable(f.Name, f.Dims, data, f.Attrs); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func (v *VarSpec) data(d *gridmesh.Dataset) (*sparse.DenseArray, error) {
	shape := make([]int, len(v.Dims))
	for i, dim := range v.Dims {
		if shape[i] = d.DimSize(dim); shape[i] == 0 {
			return nil, fmt.Errorf("gridmesh: variable %s uses undeclared dimension %s", v.Name, dim)
		}
	}
	a := sparse.ZerosDense(shape...)
	switch {
	case len(v.Times) > 0:
		if len(v.Times) != len(a.Elements) {
			return nil, fmt.Errorf("gridmesh: variable %s has %d times but needs %d", v.Name, len(v.Times), len(a.Elements))
		}
		for i, s := range v.Times {
			t, err := time.Parse(time.RFC3339, s)
			if err != nil {
				return nil, fmt.Errorf("gridmesh: variable %s: %v", v.Name, err)
			}
			a.Elements[i] = float64(t.Unix())
		}
	case len(v.Values) > 0:
		if len(v.Values) != len(a.Elements) {
			return nil, fmt.Errorf("gridmesh: variable %s has %d values but needs %d", v.Name, len(v.Values), len(a.Elements))
		}
		copy(a.Elements, v.Values)
	default:
		step := v.Step
		if step == 0 {
			step = 1
		}
		for i := range a.Elements {
			a.Elements[i] = v.Start + float64(i)*step
		}
	}
	return a, nil
}
