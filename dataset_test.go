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
	"math"
	"reflect"
	"testing"

	"github.com/ctessum/sparse"
)

func dense(values []float64, shape ...int) *sparse.DenseArray {
	a := sparse.ZerosDense(shape...)
	copy(a.Elements, values)
	return a
}

func seq(n int) []float64 {
	o := make([]float64, n)
	for i := range o {
		o[i] = float64(i)
	}
	return o
}

func different(a, b, tolerance float64) bool {
	if math.Abs(a-b) > tolerance || math.IsNaN(a) || math.IsNaN(b) {
		return true
	}
	return false
}

// testDataset returns a dataset with dims (time: 3, lat: 4, lon: 5), a
// temperature field over all three and a surface field over lat and lon.
func testDataset(t *testing.T) *Dataset {
	d := NewDataset()
	for _, dim := range []struct {
		name string
		size int
	}{{"time", 3}, {"lat", 4}, {"lon", 5}} {
		if err := d.AddDim(dim.name, dim.size); err != nil {
			t.Fatal(err)
		}
	}
	must := func(err error) {
		if err != nil {
			t.Fatal(err)
		}
	}
	must(d.AddCoord("time", []string{"time"}, DateTime64, dense([]float64{0, 86400, 172800}, 3), nil))
	must(d.AddCoord("lat", []string{"lat"}, Float64, dense([]float64{-45, -15, 15, 45}, 4),
		Attrs{"units": "degrees_north"}))
	must(d.AddCoord("lon", []string{"lon"}, Float64, dense([]float64{0, 90, 180, 270, 360}, 5),
		Attrs{"units": "degrees_east"}))
	must(d.AddVariable("temp", []string{"time", "lat", "lon"}, dense(seq(60), 3, 4, 5), nil))
	must(d.AddVariable("pres", []string{"time", "lat", "lon"}, dense(seq(60), 3, 4, 5), nil))
	must(d.AddVariable("elev", []string{"lat", "lon"}, dense(seq(20), 4, 5), nil))
	return d
}

func TestDatasetShapeChecks(t *testing.T) {
	d := NewDataset()
	if err := d.AddDim("x", 0); err == nil {
		t.Error("zero-sized dimension should fail")
	}
	if err := d.AddDim("x", 3); err != nil {
		t.Fatal(err)
	}
	if err := d.AddCoord("x", []string{"x"}, Float64, dense(nil, 4), nil); err == nil {
		t.Error("wrong size should fail")
	}
	if err := d.AddCoord("y", []string{"y"}, Float64, dense(nil, 3), nil); err == nil {
		t.Error("undeclared dimension should fail")
	}
	if err := d.AddLabelCoord("x", []string{"x"}, []string{"a", "b"}, nil); err == nil {
		t.Error("wrong number of labels should fail")
	}
	if err := d.AddLabelCoord("x", []string{"x"}, []string{"a", "b", "c"}, nil); err != nil {
		t.Fatal(err)
	}
	if err := d.AddVariable("x", []string{"x"}, dense(nil, 3), nil); err == nil {
		t.Error("duplicate variable should fail")
	}
}

func TestAvailableFields(t *testing.T) {
	d := testDataset(t)
	if err := d.AddDim("nv", 2); err != nil {
		t.Fatal(err)
	}
	if err := d.AddVariable("lat_bnds", []string{"lat", "nv"}, dense(nil, 4, 2), nil); err != nil {
		t.Fatal(err)
	}
	if err := d.AddVariable("tracer", []string{"time", "lat", "nv"}, dense(nil, 3, 4, 2), nil); err != nil {
		t.Fatal(err)
	}
	want := []string{"temp", "pres"}
	if have := d.AvailableFields(); !reflect.DeepEqual(have, want) {
		t.Errorf("have %v, want %v", have, want)
	}
}

func TestVariableAt(t *testing.T) {
	d := testDataset(t)
	v, _ := d.Var("temp")
	if have := v.at(map[string]int{"time": 1, "lat": 2, "lon": 3}); have != 33 {
		t.Errorf("have %g, want 33", have)
	}
	if have := v.at(map[string]int{"lat": 2}); have != 10 {
		t.Errorf("missing dims should be taken at 0: have %g, want 10", have)
	}
}

func TestDatasetGeneration(t *testing.T) {
	a, b := testDataset(t), testDataset(t)
	if a.Generation() == b.Generation() {
		t.Error("distinct datasets share a generation")
	}
	g := a.Generation()
	if err := a.AddDim("level", 2); err != nil {
		t.Fatal(err)
	}
	if a.Generation() == g {
		t.Error("adding a dimension did not change the generation")
	}
	g = a.Generation()
	if err := a.AddVariable("mask", []string{"lat", "lon"}, dense(seq(20), 4, 5), nil); err != nil {
		t.Fatal(err)
	}
	if a.Generation() == g {
		t.Error("adding a variable did not change the generation")
	}
	g = a.Generation()
	if err := a.AddVariable("mask", []string{"lat", "lon"}, dense(seq(20), 4, 5), nil); err == nil {
		t.Error("duplicate variable should fail")
	}
	if a.Generation() != g {
		t.Error("a failed add changed the generation")
	}
}
