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
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/kr/pretty"
)

func TestBuilderUniform(t *testing.T) {
	b := NewBuilder(testDataset(t))
	if want := (AxisMapping{X: "lon", Y: "lat", T: "time"}); b.Axes() != want {
		t.Fatalf("axes: have %+v, want %+v", b.Axes(), want)
	}
	m, err := b.Mesh()
	if err != nil {
		t.Fatal(err)
	}
	if m.Topology != UniformGrid {
		t.Errorf("topology: have %s, want uniform grid", m.Topology)
	}
	if m.Dimensions != [3]int{5, 4, 1} {
		t.Errorf("dimensions: have %v", m.Dimensions)
	}
	if m.Origin != [3]float64{0, -45, 0} || m.Spacing != [3]float64{90, 30, 1} {
		t.Errorf("origin %v, spacing %v", m.Origin, m.Spacing)
	}
	if diff := pretty.Diff(m.FieldNames(), []string{"pres", "temp"}); len(diff) > 0 {
		t.Errorf("fields: %v", diff)
	}
	if diff := pretty.Diff(m.Fields["temp"].Values, seq(20)); len(diff) > 0 {
		t.Errorf("temp: %v", diff)
	}
	r, err := m.DataRange("temp")
	if err != nil {
		t.Fatal(err)
	}
	if r != [2]float64{0, 19} {
		t.Errorf("range: have %v", r)
	}
	if m.NumPoints() != 20 {
		t.Errorf("points: have %d, want 20", m.NumPoints())
	}
	bounds := m.HorizontalBounds()
	if bounds.Min.X != 0 || bounds.Max.X != 360 || bounds.Min.Y != -45 || bounds.Max.Y != 45 {
		t.Errorf("bounds: have %+v", bounds)
	}
}

func TestBuilderSphericalEscalates(t *testing.T) {
	b := NewBuilder(testDataset(t))
	b.SetSpherical(true)
	m, err := b.Mesh()
	if err != nil {
		t.Fatal(err)
	}
	if m.Topology != StructuredGrid {
		t.Fatalf("topology: have %s, want structured grid", m.Topology)
	}
	if len(m.Points) != 20 || m.Dimensions != [3]int{5, 4, 1} {
		t.Fatalf("have %d points, dimensions %v", len(m.Points), m.Dimensions)
	}
	if m.Points[1] != (Point{X: 90, Y: -45}) {
		t.Errorf("point 1: have %+v", m.Points[1])
	}
}

func TestBuilderIdempotent(t *testing.T) {
	b := NewBuilder(testDataset(t))
	m1, err := b.Mesh()
	if err != nil {
		t.Fatal(err)
	}
	m2, err := b.Mesh()
	if err != nil {
		t.Fatal(err)
	}
	if m1 != m2 {
		t.Error("unchanged configuration should return the cached mesh")
	}
	b.Invalidate()
	m3, err := b.Mesh()
	if err != nil {
		t.Fatal(err)
	}
	if m3 == m1 {
		t.Error("invalidated mesh should be rebuilt")
	}
	if diff := pretty.Diff(m1, m3); len(diff) > 0 {
		t.Errorf("rebuilt mesh differs: %v", diff)
	}
	if err := b.SetTimeIndex(1); err != nil {
		t.Fatal(err)
	}
	m4, err := b.Mesh()
	if err != nil {
		t.Fatal(err)
	}
	if m4.Key == m1.Key {
		t.Error("a different configuration should have a different key")
	}

	other := testDataset(t)
	temp, _ := other.Var("temp")
	for i := range temp.Data.Elements {
		temp.Data.Elements[i] = 1000
	}
	b.SetDataset(other)
	m5, err := b.Mesh()
	if err != nil {
		t.Fatal(err)
	}
	if m5.Fields["temp"].Values[5] != 1000 {
		t.Fatalf("temp was not rebuilt: %v", m5.Fields["temp"].Values[5])
	}
	if m5.Key == m4.Key {
		t.Error("a different dataset should have a different key")
	}
}

func TestBuilderKeyIgnoresFieldOrder(t *testing.T) {
	b := NewBuilder(testDataset(t))
	b.SetFields([]string{"temp", "pres"})
	m1, err := b.Mesh()
	if err != nil {
		t.Fatal(err)
	}
	b.SetFields([]string{"pres", "temp"})
	if b.Dirty() {
		t.Fatal("reordering fields should not invalidate the mesh")
	}
	b.Invalidate()
	m2, err := b.Mesh()
	if err != nil {
		t.Fatal(err)
	}
	if m1.Key != m2.Key {
		t.Errorf("key changed with field order: %s != %s", m1.Key, m2.Key)
	}
}

func TestBuilderPositiveDownUniform(t *testing.T) {
	d := NewDataset()
	for _, dim := range []struct {
		name string
		size int
	}{{"depth", 3}, {"lat", 2}, {"lon", 2}} {
		if err := d.AddDim(dim.name, dim.size); err != nil {
			t.Fatal(err)
		}
	}
	must := func(err error) {
		if err != nil {
			t.Fatal(err)
		}
	}
	must(d.AddCoord("depth", []string{"depth"}, Float64, dense([]float64{0, 10, 20}, 3),
		Attrs{"positive": "down", "units": "m"}))
	must(d.AddCoord("lat", []string{"lat"}, Float64, dense([]float64{-10, 10}, 2),
		Attrs{"units": "degrees_north"}))
	must(d.AddCoord("lon", []string{"lon"}, Float64, dense([]float64{0, 20}, 2),
		Attrs{"units": "degrees_east"}))
	must(d.AddVariable("salt", []string{"depth", "lat", "lon"}, dense(seq(12), 3, 2, 2), nil))

	b := NewBuilder(d)
	must(b.SetAxes(AxisMapping{X: "lon", Y: "lat", Z: "depth"}))
	m, err := b.Mesh()
	if err != nil {
		t.Fatal(err)
	}
	if m.Topology != UniformGrid {
		t.Fatalf("topology: have %s, want uniform grid", m.Topology)
	}
	if m.Origin[2] != 0 || m.Spacing[2] != 10 {
		t.Errorf("z origin %g, spacing %g", m.Origin[2], m.Spacing[2])
	}
	for j, z := range m.ZCoords {
		if want := m.Origin[2] + float64(j)*m.Spacing[2]; z != want {
			t.Errorf("z %d: coordinate %g, origin+spacing %g", j, z, want)
		}
	}
	info, err := b.DimensionInfo("depth")
	if err != nil {
		t.Fatal(err)
	}
	if info.Spacing != -10 {
		t.Errorf("depth dimension info spacing: have %g, want -10", info.Spacing)
	}
}

func TestBuilderMissingField(t *testing.T) {
	b := NewBuilder(testDataset(t))
	m, err := b.Mesh()
	if err != nil {
		t.Fatal(err)
	}
	b.SetFields([]string{"nonexistent"})
	_, err = b.Mesh()
	var ferr *MissingFieldError
	if !errors.As(err, &ferr) || ferr.Name != "nonexistent" {
		t.Fatalf("have %v, want missing field error", err)
	}
	if b.Cached() != m {
		t.Error("failed build should keep the previous mesh")
	}
	if diff := pretty.Diff(b.Cached().FieldNames(), []string{"pres", "temp"}); len(diff) > 0 {
		t.Errorf("previous mesh changed: %v", diff)
	}
}

func TestBuilderMissingCoordinate(t *testing.T) {
	b := NewBuilder(testDataset(t))
	if _, err := b.Mesh(); err != nil {
		t.Fatal(err)
	}
	d := NewDataset()
	d.AddDim("lat", 4)
	d.AddDim("lon", 5)
	d.AddCoord("lat", []string{"lat"}, Float64, dense([]float64{-45, -15, 15, 45}, 4), nil)
	d.AddVariable("temp", []string{"lat", "lon"}, dense(seq(20), 4, 5), nil)
	b.SetDataset(d)
	b.SetFields([]string{"temp"})
	_, err := b.Mesh()
	var cerr *MissingCoordinateError
	if !errors.As(err, &cerr) || cerr.Axis != AxisX || cerr.Name != "lon" {
		t.Fatalf("have %v, want missing x coordinate", err)
	}
}

func TestBuilderConfigurationErrors(t *testing.T) {
	b := NewBuilder(testDataset(t))
	if _, err := b.Mesh(); err != nil {
		t.Fatal(err)
	}
	var cerr *ConfigurationError
	if err := b.SetAxis(AxisZ, "temp"); !errors.As(err, &cerr) {
		t.Errorf("binding a field: have %v", err)
	}
	if err := b.SetAxis(AxisZ, "depth"); !errors.As(err, &cerr) {
		t.Errorf("binding a missing coordinate: have %v", err)
	}
	big, _ := Range(0, 10, 1)
	if err := b.SetSlices(Slices{"lon": big}); !errors.As(err, &cerr) {
		t.Errorf("out of range slice: have %v", err)
	}
	if err := b.SetSlices(Slices{"temp": big}); !errors.As(err, &cerr) {
		t.Errorf("slicing a field: have %v", err)
	}
	if err := b.SetSlices(Slices{"lon": SliceSpec{}}); !errors.As(err, &cerr) {
		t.Errorf("zero step: have %v", err)
	}
	if err := b.SetTimeIndex(3); !errors.As(err, &cerr) {
		t.Errorf("t_index: have %v", err)
	}
	if err := b.SetOrder("X"); !errors.As(err, &cerr) {
		t.Errorf("order: have %v", err)
	}
	if err := b.SetComputed(map[string]string{"x": "temp +"}); !errors.As(err, &cerr) {
		t.Errorf("computed: have %v", err)
	}
	if err := b.SetProjection(0, 1); !errors.As(err, &cerr) {
		t.Errorf("radius: have %v", err)
	}
	if b.Dirty() {
		t.Error("rejected configuration should not invalidate the mesh")
	}
	if want := (AxisMapping{X: "lon", Y: "lat", T: "time"}); b.Axes() != want {
		t.Errorf("axes changed to %+v", b.Axes())
	}
}

func TestBuilderInvalidation(t *testing.T) {
	d := testDataset(t)
	b := NewBuilder(d)
	lon, _ := InclusiveRange(1, 3, 1)
	mutators := []struct {
		name string
		f    func() error
	}{
		{"same axis", func() error { return b.SetAxis(AxisX, "lon") }},
		{"same time", func() error { return b.SetTimeIndex(0) }},
		{"same order", func() error { return b.SetOrder(OrderC) }},
		{"same fields", func() error { b.SetFields([]string{"pres", "temp", "temp"}); return nil }},
		{"same spherical", func() error { b.SetSpherical(false); return nil }},
		{"same dataset", func() error { b.SetDataset(d); return nil }},
		{"projection", func() error { return b.SetProjection(1, 1) }},
	}
	changes := []struct {
		name string
		f    func() error
	}{
		{"axis", func() error { return b.SetAxis(AxisT, "") }},
		{"time", func() error { return b.SetTimeIndex(1) }},
		{"slices", func() error { return b.SetSlices(Slices{"lon": lon}) }},
		{"fields", func() error { b.SetFields([]string{"temp"}); return nil }},
		{"order", func() error { return b.SetOrder(OrderFortran) }},
		{"spherical", func() error { b.SetSpherical(true); return nil }},
		{"computed", func() error { return b.SetComputed(map[string]string{"t2": "temp * 2"}) }},
		{"dataset", func() error { b.SetDataset(testDataset(t)); return nil }},
	}
	for _, m := range mutators {
		if _, err := b.Mesh(); err != nil {
			t.Fatal(err)
		}
		if err := m.f(); err != nil {
			t.Fatalf("%s: %v", m.name, err)
		}
		if b.Dirty() {
			t.Errorf("%s should not invalidate the mesh", m.name)
		}
	}
	for _, c := range changes {
		if _, err := b.Mesh(); err != nil {
			t.Fatalf("%s: %v", c.name, err)
		}
		if err := c.f(); err != nil {
			t.Fatalf("%s: %v", c.name, err)
		}
		if !b.Dirty() {
			t.Errorf("%s should invalidate the mesh", c.name)
		}
	}
}

func TestBuilderTimeIndex(t *testing.T) {
	b := NewBuilder(testDataset(t))
	if err := b.SetTimeIndex(2); err != nil {
		t.Fatal(err)
	}
	m, err := b.Mesh()
	if err != nil {
		t.Fatal(err)
	}
	if have := m.Fields["temp"].Values; have[0] != 40 || have[19] != 59 {
		t.Errorf("have %v", have)
	}
	if b.TimeSize() != 3 {
		t.Errorf("time size: have %d", b.TimeSize())
	}
	want := []string{"1970-01-01 00:00:00", "1970-01-02 00:00:00", "1970-01-03 00:00:00"}
	if diff := pretty.Diff(b.TimeLabels(), want); len(diff) > 0 {
		t.Errorf("labels: %v", diff)
	}
}

func TestBuilderSlices(t *testing.T) {
	b := NewBuilder(testDataset(t))
	lon, _ := InclusiveRange(1, 3, 1)
	if err := b.SetSlices(Slices{"lon": lon}); err != nil {
		t.Fatal(err)
	}
	m, err := b.Mesh()
	if err != nil {
		t.Fatal(err)
	}
	if diff := pretty.Diff(m.XCoords, []float64{90, 180, 270}); len(diff) > 0 {
		t.Errorf("x: %v", diff)
	}
	if m.Dimensions != [3]int{3, 4, 1} {
		t.Errorf("dimensions: have %v", m.Dimensions)
	}
	want := []float64{1, 2, 3, 6, 7, 8, 11, 12, 13, 16, 17, 18}
	if diff := pretty.Diff(m.Fields["temp"].Values, want); len(diff) > 0 {
		t.Errorf("temp: %v", diff)
	}

	lat, _ := Cut(2)
	if err := b.SetSlices(Slices{"lat": lat}); err != nil {
		t.Fatal(err)
	}
	m, err = b.Mesh()
	if err != nil {
		t.Fatal(err)
	}
	if m.Dimensions != [3]int{5, 1, 1} || !reflect.DeepEqual(m.YCoords, []float64{15}) {
		t.Errorf("dimensions %v, y %v", m.Dimensions, m.YCoords)
	}
	if diff := pretty.Diff(m.Fields["temp"].Values, []float64{10, 11, 12, 13, 14}); len(diff) > 0 {
		t.Errorf("temp: %v", diff)
	}
	if ext := b.SliceExtents(); ext["lat"] != [2]int{0, 3} || ext["lon"] != [2]int{0, 4} {
		t.Errorf("extents: have %v", ext)
	}
}

func TestBuilderFortranOrder(t *testing.T) {
	b := NewBuilder(testDataset(t))
	b.SetFields([]string{"elev"})
	if err := b.SetOrder(OrderFortran); err != nil {
		t.Fatal(err)
	}
	m, err := b.Mesh()
	if err != nil {
		t.Fatal(err)
	}
	if diff := pretty.Diff(m.Fields["elev"].Values[:6], []float64{0, 5, 10, 15, 1, 6}); len(diff) > 0 {
		t.Errorf("elev: %v", diff)
	}
}

func TestBuilderSkipsMismatchedFields(t *testing.T) {
	d := testDataset(t)
	if err := d.AddVariable("zonal", []string{"time", "lat"}, dense(nil, 3, 4), nil); err != nil {
		t.Fatal(err)
	}
	b := NewBuilder(d)
	b.SetFields([]string{"zonal", "elev", "temp"})
	m, err := b.Mesh()
	if err != nil {
		t.Fatal(err)
	}
	if diff := pretty.Diff(m.FieldNames(), []string{"elev", "temp"}); len(diff) > 0 {
		t.Errorf("fields: %v", diff)
	}
	if diff := pretty.Diff(m.Skipped, []string{"zonal"}); len(diff) > 0 {
		t.Errorf("skipped: %v", diff)
	}
}

func TestBuilderComputed(t *testing.T) {
	b := NewBuilder(testDataset(t))
	if err := b.SetComputed(map[string]string{"ratio": "sqrt(temp) + pres * 2"}); err != nil {
		t.Fatal(err)
	}
	m, err := b.Mesh()
	if err != nil {
		t.Fatal(err)
	}
	v := m.Fields["ratio"].Values
	for i, x := range v {
		want := math.Sqrt(float64(i)) + float64(i)*2
		if different(x, want, 1e-12) {
			t.Errorf("%d: have %g, want %g", i, x, want)
		}
	}
	if err := b.SetComputed(map[string]string{"bad": "nope + 1"}); err != nil {
		t.Fatal(err)
	}
	var ferr *MissingFieldError
	if _, err := b.Mesh(); !errors.As(err, &ferr) || ferr.Name != "nope" {
		t.Errorf("have %v, want missing field nope", err)
	}
}

func TestBuilderComputedNameClash(t *testing.T) {
	b := NewBuilder(testDataset(t))
	m1, err := b.Mesh()
	if err != nil {
		t.Fatal(err)
	}
	if err := b.SetComputed(map[string]string{"temp": "temp * 2"}); err != nil {
		t.Fatal(err)
	}
	var cerr *ConfigurationError
	if _, err := b.Mesh(); !errors.As(err, &cerr) || cerr.Field != "computed.temp" {
		t.Errorf("have %v, want configuration error for computed.temp", err)
	}
	if b.Cached() != m1 {
		t.Error("failed build replaced the cached mesh")
	}
	if m1.Fields["temp"].Values[5] != 5 {
		t.Errorf("temp was overwritten: %g", m1.Fields["temp"].Values[5])
	}
}

func TestBuilderFieldsArePointData(t *testing.T) {
	b := NewBuilder(testDataset(t))
	if err := b.SetComputed(map[string]string{"t2": "temp * 2"}); err != nil {
		t.Fatal(err)
	}
	m, err := b.Mesh()
	if err != nil {
		t.Fatal(err)
	}
	for name, f := range m.Fields {
		if f.Location != PointData || len(f.Values) != m.NumPoints() {
			t.Errorf("%s: location %s with %d values for %d points", name, f.Location, len(f.Values), m.NumPoints())
		}
	}
}

func TestBuilderNoFields(t *testing.T) {
	b := NewBuilder(testDataset(t))
	b.SetFields(nil)
	m, err := b.Mesh()
	if err != nil {
		t.Fatal(err)
	}
	if m.Topology != UniformGrid || len(m.Fields) != 0 || m.NumPoints() != 20 {
		t.Errorf("have %s with %d fields and %d points", m.Topology, len(m.Fields), m.NumPoints())
	}
}

func TestBuilderCurvilinear(t *testing.T) {
	d := NewDataset()
	d.AddDim("y", 2)
	d.AddDim("x", 3)
	lon := []float64{10, 11, 12, 10.5, 11.5, 12.5}
	lat := []float64{50, 50.2, 50.4, 51, 51.2, 51.4}
	d.AddCoord("lon", []string{"y", "x"}, Float64, dense(lon, 2, 3), Attrs{"units": "degrees_east"})
	d.AddCoord("lat", []string{"y", "x"}, Float64, dense(lat, 2, 3), Attrs{"units": "degrees_north"})
	d.AddVariable("f", []string{"y", "x"}, dense(seq(6), 2, 3), nil)
	b := NewBuilder(d)
	if err := b.SetAxes(AxisMapping{X: "lon", Y: "lat"}); err != nil {
		t.Fatal(err)
	}
	b.SetFields([]string{"f"})
	m, err := b.Mesh()
	if err != nil {
		t.Fatal(err)
	}
	if diff := pretty.Diff(m.Fields["f"].Values, seq(6)); len(diff) > 0 {
		t.Errorf("f: %v", diff)
	}
	if m.Topology != StructuredGrid || m.Dimensions != [3]int{3, 2, 1} {
		t.Fatalf("have %s with dimensions %v", m.Topology, m.Dimensions)
	}
	for i, p := range m.Points {
		if p.X != lon[i] || p.Y != lat[i] {
			t.Errorf("point %d: have %+v", i, p)
		}
	}
}

func TestBuilderUnstructured(t *testing.T) {
	d := NewDataset()
	d.AddDim("cell", 4)
	d.AddCoord("lon", []string{"cell"}, Float64, dense([]float64{0, 5, 3, 8}, 4), Attrs{"units": "degrees_east"})
	d.AddCoord("lat", []string{"cell"}, Float64, dense([]float64{1, 2, 7, 4}, 4), Attrs{"units": "degrees_north"})
	d.AddVariable("f", []string{"cell"}, dense(seq(4), 4), nil)
	b := NewBuilder(d)
	if err := b.SetAxes(AxisMapping{X: "lon", Y: "lat"}); err != nil {
		t.Fatal(err)
	}
	topo, err := b.Topology()
	if err != nil {
		t.Fatal(err)
	}
	if topo != UnstructuredCells {
		t.Fatalf("topology: have %s", topo)
	}
	m, err := b.Mesh()
	if err != nil {
		t.Fatal(err)
	}
	if m.Dimensions != [3]int{4, 1, 1} || m.Points[2] != (Point{X: 3, Y: 7}) {
		t.Errorf("dimensions %v, point 2 %+v", m.Dimensions, m.Points[2])
	}
}
