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
	"sort"
	"strings"
	"time"

	"github.com/Knetic/govaluate"
	"github.com/ctessum/sparse"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/gridmesh/internal/hash"
)

// Order is the memory order used to flatten N-dimensional field arrays.
type Order string

// Flattening orders.
const (
	// OrderC varies the last dimension fastest.
	OrderC Order = "C"
	// OrderFortran varies the first dimension fastest.
	OrderFortran Order = "F"
)

// ParseOrder returns the order named s: "C", "F" or "Fortran".
func ParseOrder(s string) (Order, error) {
	switch strings.ToUpper(s) {
	case "C":
		return OrderC, nil
	case "F", "FORTRAN":
		return OrderFortran, nil
	}
	return "", configErrorf("order", "%q is not C or F", s)
}

// TimeLayout is the format of time labels.
const TimeLayout = "2006-01-02 15:04:05"

// Builder turns a dataset and its configuration into a Mesh. It holds a
// single cached mesh that is rebuilt on the first read after any change to
// its configuration. A Builder is not safe for concurrent use.
type Builder struct {
	// Log receives build and classification messages.
	Log logrus.FieldLogger

	dataset *Dataset
	classes *Classification
	origin  *DataOrigin

	axes   AxisMapping
	slices Slices
	tIndex int
	fields []string
	order  Order

	spherical     bool
	radius        float64
	verticalScale float64

	computedSrc map[string]string
	computed    map[string]*govaluate.EvaluableExpression

	dirty bool
	mesh  *Mesh

	projectedDirty bool
	projected      *Mesh
}

// NewBuilder returns a builder for d with the axes mapped automatically
// from the first available field and every available field requested.
func NewBuilder(d *Dataset) *Builder {
	b := &Builder{
		Log:           logrus.StandardLogger(),
		order:         OrderC,
		radius:        DefaultRadius,
		verticalScale: DefaultVerticalScale,
	}
	b.setDataset(d)
	b.auto()
	return b
}

func (b *Builder) log() logrus.FieldLogger {
	if b.Log == nil {
		return logrus.StandardLogger()
	}
	return b.Log
}

func (b *Builder) setDataset(d *Dataset) {
	b.dataset = d
	b.classes = ClassifyDataset(d, b.log())
	b.dirty = true
}

// auto maps the axes from the dataset's first available field and requests
// all available fields.
func (b *Builder) auto() {
	avail := b.dataset.AvailableFields()
	b.axes = AxisMapping{}
	if len(avail) > 0 {
		b.axes = AutoMapping(b.dataset, b.classes, avail[0])
	}
	b.fields = avail
	b.slices = nil
	b.tIndex = 0
	b.dirty = true
}

// SetDataset replaces the dataset. The configuration is kept; bindings
// that no longer name a coordinate are reported when the mesh is built.
func (b *Builder) SetDataset(d *Dataset) {
	if d == b.dataset {
		return
	}
	b.setDataset(d)
}

// SetAxis binds axis a to coordinate name. An empty name unbinds it.
func (b *Builder) SetAxis(a Axis, name string) error {
	return b.SetAxes(b.axes.With(a, name))
}

// SetAxes replaces all axis bindings.
func (b *Builder) SetAxes(m AxisMapping) error {
	if err := m.Validate(b.dataset); err != nil {
		return err
	}
	if m != b.axes {
		b.axes = m
		b.dirty = true
	}
	return nil
}

// SetSlices replaces the per-coordinate slices.
func (b *Builder) SetSlices(s Slices) error {
	if err := checkSlices(b.dataset, s); err != nil {
		return err
	}
	if !s.equal(b.slices) {
		b.dirty = true
	}
	b.slices = s.clone()
	return nil
}

func checkSlices(d *Dataset, s Slices) error {
	for name, spec := range s {
		v, ok := d.Var(name)
		if !ok || !d.IsCoordinate(name) {
			return configErrorf("slices."+name, "%s is not a coordinate array", name)
		}
		if err := spec.check(); err != nil {
			return configErrorf("slices."+name, "%v", err)
		}
		if v.selfIndexed() {
			if err := spec.fits(d.DimSize(name)); err != nil {
				return configErrorf("slices."+name, "%v", err)
			}
		}
	}
	return nil
}

// SetTimeIndex selects the time step to build.
func (b *Builder) SetTimeIndex(i int) error {
	if err := checkTimeIndex(b.dataset, b.axes, i); err != nil {
		return err
	}
	if i != b.tIndex {
		b.tIndex = i
		b.dirty = true
	}
	return nil
}

func checkTimeIndex(d *Dataset, m AxisMapping, i int) error {
	if i < 0 {
		return configErrorf("t_index", "%d is negative", i)
	}
	if m.T == "" {
		return nil
	}
	if v, ok := d.Var(m.T); ok && i >= v.Size() {
		return configErrorf("t_index", "%d is out of range [0, %d)", i, v.Size())
	}
	return nil
}

// SetFields selects the fields to place on the mesh. Duplicates are
// dropped. Fields are checked against the dataset when the mesh is built.
func (b *Builder) SetFields(names []string) {
	seen := make(map[string]bool, len(names))
	fields := make([]string, 0, len(names))
	for _, n := range names {
		if !seen[n] {
			seen[n] = true
			fields = append(fields, n)
		}
	}
	if !sameSet(fields, b.fields) {
		b.dirty = true
	}
	b.fields = fields
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	in := stringSet(a...)
	for _, s := range b {
		if !in[s] {
			return false
		}
	}
	return true
}

// SetOrder sets the order in which N-dimensional fields are flattened.
func (b *Builder) SetOrder(o Order) error {
	if o != OrderC && o != OrderFortran {
		return configErrorf("order", "%q is not C or F", string(o))
	}
	if o != b.order {
		b.order = o
		b.dirty = true
	}
	return nil
}

// SetSpherical sets whether the mesh is meant for projection onto a
// sphere, which requires explicit points.
func (b *Builder) SetSpherical(spherical bool) {
	if spherical != b.spherical {
		b.spherical = spherical
		b.dirty = true
	}
}

// SetComputed defines fields computed from the built fields, keyed by
// name. Expressions may use the functions exp, log, sqrt and abs.
func (b *Builder) SetComputed(exprs map[string]string) error {
	parsed, err := parseComputed(exprs)
	if err != nil {
		return err
	}
	if !sameExprs(exprs, b.computedSrc) {
		b.dirty = true
	}
	b.computedSrc = make(map[string]string, len(exprs))
	for k, v := range exprs {
		b.computedSrc[k] = v
	}
	b.computed = parsed
	return nil
}

func sameExprs(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if w, ok := b[k]; !ok || w != v {
			return false
		}
	}
	return true
}

// SetProjection sets the sphere radius and vertical exaggeration used by
// SphericalMesh.
func (b *Builder) SetProjection(radius, verticalScale float64) error {
	if radius <= 0 {
		return configErrorf("Sphere.Radius", "%g is not positive", radius)
	}
	if radius != b.radius || verticalScale != b.verticalScale {
		b.radius, b.verticalScale = radius, verticalScale
		b.projectedDirty = true
	}
	return nil
}

// Invalidate forces the mesh to be rebuilt on the next read.
func (b *Builder) Invalidate() { b.dirty = true }

// Dirty returns whether the next read will rebuild the mesh.
func (b *Builder) Dirty() bool { return b.dirty || b.mesh == nil }

// Dataset returns the current dataset.
func (b *Builder) Dataset() *Dataset { return b.dataset }

// Axes returns the current axis bindings.
func (b *Builder) Axes() AxisMapping { return b.axes }

// Slices returns a copy of the current slices.
func (b *Builder) Slices() Slices { return b.slices.clone() }

// TimeIndex returns the selected time step.
func (b *Builder) TimeIndex() int { return b.tIndex }

// Fields returns the requested fields.
func (b *Builder) Fields() []string { return append([]string(nil), b.fields...) }

// Order returns the flattening order.
func (b *Builder) Order() Order { return b.order }

// Spherical returns whether spherical projection is requested.
func (b *Builder) Spherical() bool { return b.spherical }

// Classification returns the roles of the dataset's coordinates.
func (b *Builder) Classification() *Classification { return b.classes }

// DimensionInfo returns the geometry of coordinate name.
func (b *Builder) DimensionInfo(name string) (*DimensionInfo, error) {
	v, ok := b.dataset.Var(name)
	if !ok || !b.dataset.IsCoordinate(name) {
		return nil, configErrorf(name, "%s is not a coordinate array", name)
	}
	return NewDimensionInfo(v, b.classes.Role(name)), nil
}

// AvailableFields returns the fields that can be placed on a mesh.
func (b *Builder) AvailableFields() []string { return b.dataset.AvailableFields() }

// AvailableCoordinates returns the coordinates that axes can be bound to.
func (b *Builder) AvailableCoordinates() []string { return b.dataset.Coordinates() }

// SliceExtents returns the index range [0, size-1] of each dimension
// coordinate bound to x, y or z.
func (b *Builder) SliceExtents() map[string][2]int {
	o := make(map[string][2]int)
	for _, a := range SpatialAxes {
		name := b.axes.Get(a)
		if v, ok := b.dataset.Var(name); ok && v.selfIndexed() {
			o[name] = [2]int{0, v.Size() - 1}
		}
	}
	return o
}

// TimeSize returns the number of time steps, or 0 if no time axis is
// bound.
func (b *Builder) TimeSize() int {
	if v, ok := b.dataset.Var(b.axes.T); ok {
		return v.Size()
	}
	return 0
}

// TimeLabels returns a label for each time step.
func (b *Builder) TimeLabels() []string {
	v, ok := b.dataset.Var(b.axes.T)
	if !ok {
		return nil
	}
	if v.Data == nil {
		return append([]string(nil), v.Labels...)
	}
	o := make([]string, len(v.Data.Elements))
	for i, t := range v.Data.Elements {
		if v.DType == DateTime64 {
			o[i] = time.Unix(int64(t), 0).UTC().Format(TimeLayout)
		} else {
			o[i] = fmt.Sprintf("%v", t)
		}
	}
	return o
}

// Topology returns the topology the mesh will have with the current
// configuration.
func (b *Builder) Topology() (MeshTopology, error) {
	p, err := b.plan()
	if err != nil {
		return 0, err
	}
	return p.topology, nil
}

// Mesh returns the mesh for the current configuration, rebuilding it if
// the configuration changed since the last read. If the build fails, the
// previously built mesh is kept.
func (b *Builder) Mesh() (*Mesh, error) {
	if !b.Dirty() {
		return b.mesh, nil
	}
	m, err := b.build()
	if err != nil {
		return nil, err
	}
	b.mesh = m
	b.dirty = false
	b.projectedDirty = true
	return m, nil
}

// Cached returns the last successfully built mesh without rebuilding, or
// nil if none has been built.
func (b *Builder) Cached() *Mesh { return b.mesh }

// SphericalMesh returns the mesh projected onto a sphere, treating x, y
// and z as longitude, latitude and elevation.
func (b *Builder) SphericalMesh() (*Mesh, error) {
	m, err := b.Mesh()
	if err != nil {
		return nil, err
	}
	if b.projected == nil || b.projectedDirty {
		b.projected = ProjectMesh(m, b.radius, b.verticalScale)
		b.projected.Key = hash.Key(m.Key, b.radius, b.verticalScale)
		b.projectedDirty = false
	}
	return b.projected, nil
}

// meshPlan holds the geometry decisions for one build.
type meshPlan struct {
	sel     Selection
	timeDim string
	tIndex  int

	// dims are the spatial dimensions of the reference field.
	dims []string
	// vars holds the coordinates bound to x, y and z, or nil.
	vars  [3]*Variable
	infos [3]*DimensionInfo

	topology MeshTopology
}

func (b *Builder) plan() (*meshPlan, error) {
	d := b.dataset
	p := &meshPlan{tIndex: b.tIndex}
	for i, a := range SpatialAxes {
		name := b.axes.Get(a)
		if name == "" {
			continue
		}
		v, ok := d.Var(name)
		if !ok || !d.IsCoordinate(name) {
			return nil, &MissingCoordinateError{Axis: a, Name: name}
		}
		p.vars[i] = v
	}
	if t := b.axes.T; t != "" {
		v, ok := d.Var(t)
		if !ok || !d.IsCoordinate(t) {
			return nil, &MissingCoordinateError{Axis: AxisT, Name: t}
		}
		if len(v.Dims) == 1 {
			p.timeDim = v.Dims[0]
		}
	}
	for _, f := range b.fields {
		if _, ok := d.Var(f); !ok || d.IsCoordinate(f) {
			return nil, &MissingFieldError{Name: f}
		}
	}
	var err error
	if p.sel, err = ResolveSlices(d, b.axes, b.slices, b.tIndex); err != nil {
		return nil, err
	}

	if ref := b.reference(); ref != "" {
		v, _ := d.Var(ref)
		p.dims = p.spatialDims(v)
	} else {
		seen := make(map[string]bool)
		for i := len(p.vars) - 1; i >= 0; i-- {
			if p.vars[i] == nil {
				continue
			}
			for _, dim := range p.vars[i].Dims {
				if !seen[dim] {
					seen[dim] = true
					p.dims = append(p.dims, dim)
				}
			}
		}
	}

	q := TopologyQuery{FieldDims: p.dims, Spherical: b.spherical}
	for i, v := range p.vars {
		if v == nil {
			continue
		}
		if s, ok := p.sel[v.Name]; ok {
			v = sliceVar(v, s)
		}
		p.infos[i] = NewDimensionInfo(v, b.classes.Role(v.Name))
		q.Axes = append(q.Axes, p.infos[i])
	}
	q.ExplicitBounds = explicitBounds(q.Axes)
	p.topology = SelectTopology(q)
	return p, nil
}

// reference returns the field whose dimensions define the mesh: the first
// requested field in sorted order.
func (b *Builder) reference() string {
	if len(b.fields) == 0 {
		return ""
	}
	f := append([]string(nil), b.fields...)
	sort.Strings(f)
	return f[0]
}

// spatialDims returns the dimensions of v other than time.
func (p *meshPlan) spatialDims(v *Variable) []string {
	var o []string
	for _, dim := range v.Dims {
		if dim != p.timeDim {
			o = append(o, dim)
		}
	}
	return o
}

// sliceVar returns the part of dimension coordinate v selected by s.
func sliceVar(v *Variable, s SliceSpec) *Variable {
	idx := s.Indices()
	o := *v
	if v.Data != nil {
		o.Data = sparse.ZerosDense(len(idx))
		for i, j := range idx {
			o.Data.Elements[i] = v.Data.Elements[j]
		}
		return &o
	}
	o.Labels = make([]string, len(idx))
	for i, j := range idx {
		o.Labels[i] = v.Labels[j]
	}
	return &o
}

// indexLists returns the indices to take along each of dims and whether
// each is kept in the output.
func (p *meshPlan) indexLists(d *Dataset, dims []string) (lists [][]int, kept []bool) {
	lists = make([][]int, len(dims))
	kept = make([]bool, len(dims))
	for i, dim := range dims {
		switch s, ok := p.sel[dim]; {
		case dim == p.timeDim:
			lists[i] = []int{p.tIndex}
		case ok:
			lists[i] = s.Indices()
			kept[i] = s.Kind == RangeSlice
		default:
			lists[i] = make([]int, d.DimSize(dim))
			for j := range lists[i] {
				lists[i][j] = j
			}
			kept[i] = true
		}
	}
	return lists, kept
}

// odometer calls f with every combination of indices from lists. The last
// list varies fastest for OrderC and the first for OrderFortran.
func odometer(lists [][]int, order Order, f func(index []int)) {
	n := 1
	for _, l := range lists {
		n *= len(l)
	}
	cur := make([]int, len(lists))
	index := make([]int, len(lists))
	for k := 0; k < n; k++ {
		for i, l := range lists {
			index[i] = l[cur[i]]
		}
		f(index)
		for j := range lists {
			i := len(lists) - 1 - j
			if order == OrderFortran {
				i = j
			}
			cur[i]++
			if cur[i] < len(lists[i]) {
				break
			}
			cur[i] = 0
		}
	}
}

// flatten returns the selected values of v in the given order.
func (p *meshPlan) flatten(d *Dataset, v *Variable, order Order) []float64 {
	lists, _ := p.indexLists(d, v.Dims)
	o := make([]float64, 0, v.Size())
	odometer(lists, order, func(index []int) {
		o = append(o, v.Data.Get(index...))
	})
	return o
}

// key hashes the dataset generation and every setting that shapes the
// mesh. Fields are hashed sorted.
func (b *Builder) key() string {
	cfg := b.State().DatasetConfig
	cfg.Arrays = append([]string(nil), cfg.Arrays...)
	sort.Strings(cfg.Arrays)
	return hash.Key(b.dataset.Generation(), cfg, b.order, b.spherical, b.computedSrc)
}

func (b *Builder) build() (*Mesh, error) {
	p, err := b.plan()
	if err != nil {
		return nil, err
	}
	d := b.dataset
	m := &Mesh{
		Topology: p.topology,
		Fields:   make(map[string]*Field),
		Key:      b.key(),
	}
	for i, v := range p.vars {
		if v != nil {
			m.AxisNames[i] = v.Name
		}
	}

	if p.topology.Rectilinear() {
		coords := [3][]float64{{0}, {0}, {0}}
		for i, info := range p.infos {
			m.Spacing[i] = 1
			if info == nil {
				continue
			}
			v := p.vars[i]
			if s, ok := p.sel[v.Name]; ok {
				v = sliceVar(v, s)
			}
			coords[i] = append([]float64(nil), v.Data.Elements...)
			m.Origin[i], m.Spacing[i] = coords[i][0], meanStep(coords[i])
		}
		if p.topology == NonuniformRectilinear {
			m.Origin, m.Spacing = [3]float64{}, [3]float64{}
		}
		m.XCoords, m.YCoords, m.ZCoords = coords[0], coords[1], coords[2]
		m.Dimensions = [3]int{len(coords[0]), len(coords[1]), len(coords[2])}
	} else {
		b.points(p, m)
	}

	ref := b.reference()
	names := append([]string(nil), b.fields...)
	sort.Strings(names)
	for _, name := range names {
		v, _ := d.Var(name)
		if name != ref && !equalDims(p.spatialDims(v), p.dims) {
			b.log().WithFields(logrus.Fields{
				"field": name,
				"dims":  v.Dims,
				"want":  p.dims,
			}).Warn("gridmesh: skipping field with mismatched dimensions")
			m.Skipped = append(m.Skipped, name)
			continue
		}
		m.Fields[name] = &Field{Name: name, Location: PointData, Values: p.flatten(d, v, b.order)}
	}
	if len(b.computed) > 0 {
		if err := addComputed(m, b.computed); err != nil {
			return nil, err
		}
	}

	b.log().WithFields(logrus.Fields{
		"topology": m.Topology.String(),
		"fields":   m.FieldNames(),
		"dims":     m.Dimensions,
	}).Debug("gridmesh: built mesh")
	return m, nil
}

// points fills in the explicit points of a structured or unstructured
// mesh, iterating over the kept dimensions with the last varying fastest.
func (b *Builder) points(p *meshPlan, m *Mesh) {
	d := b.dataset
	lists, kept := p.indexLists(d, p.dims)
	var shape []int
	for i, l := range lists {
		if kept[i] {
			shape = append(shape, len(l))
		}
	}
	pos := make(map[string]int, len(p.dims)+1)
	if p.timeDim != "" {
		pos[p.timeDim] = p.tIndex
	}
	odometer(lists, OrderC, func(index []int) {
		for i, dim := range p.dims {
			pos[dim] = index[i]
		}
		var pt [3]float64
		for i, v := range p.vars {
			if v != nil {
				pt[i] = v.at(pos)
			}
		}
		m.Points = append(m.Points, Point{X: pt[0], Y: pt[1], Z: pt[2]})
	})

	if p.topology == UnstructuredCells {
		m.Dimensions = [3]int{len(m.Points), 1, 1}
		return
	}
	m.Dimensions = [3]int{1, 1, 1}
	for i := 0; i < len(shape) && i < 3; i++ {
		m.Dimensions[i] = shape[len(shape)-1-i]
	}
}

func equalDims(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
