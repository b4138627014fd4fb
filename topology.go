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

// MeshTopology is the storage layout of a mesh.
type MeshTopology int

// Mesh topologies, cheapest first.
const (
	// UniformGrid is an axis-aligned grid with constant spacing per axis.
	UniformGrid MeshTopology = iota
	// NonuniformRectilinear is an axis-aligned grid described by three
	// coordinate arrays.
	NonuniformRectilinear
	// StructuredGrid has grid connectivity and explicit point positions.
	StructuredGrid
	// UnstructuredCells has explicit points and no implied grid ordering.
	UnstructuredCells
)

func (t MeshTopology) String() string {
	switch t {
	case UniformGrid:
		return "uniform grid"
	case NonuniformRectilinear:
		return "non-uniform rectilinear grid"
	case StructuredGrid:
		return "structured grid"
	case UnstructuredCells:
		return "unstructured cells"
	default:
		return "invalid topology"
	}
}

// Rectilinear returns whether meshes of topology t store their geometry as
// three coordinate arrays rather than as points.
func (t MeshTopology) Rectilinear() bool {
	return t == UniformGrid || t == NonuniformRectilinear
}

// TopologyQuery holds what SelectTopology needs to know about a field and
// the coordinates bound to its spatial axes.
type TopologyQuery struct {
	// FieldDims are the dimensions of the field, time excluded.
	FieldDims []string

	// Axes describes the coordinates bound to x, y and z. Unbound axes
	// are left out.
	Axes []*DimensionInfo

	// ExplicitBounds is whether the longitude and latitude coordinates
	// both name cell-bounds variables.
	ExplicitBounds bool

	// Spherical is whether the mesh will be projected onto a sphere.
	Spherical bool
}

// SelectTopology returns the cheapest topology that can represent the
// query's geometry. Fields whose spatial dimensions are not spanned one to
// one by the axis coordinates are unstructured. Otherwise, explicit cell
// bounds and spherical projection need explicit points, as do axes without
// a numeric dimension coordinate. What remains is a uniform grid if every
// axis is regular and a non-uniform rectilinear grid if not.
func SelectTopology(q TopologyQuery) MeshTopology {
	if len(q.FieldDims) != len(q.Axes) || !spans(q.FieldDims, q.Axes) {
		return UnstructuredCells
	}
	if q.ExplicitBounds {
		return StructuredGrid
	}
	roles := make(map[CoordinateRole]bool)
	for _, info := range q.Axes {
		roles[info.Role] = true
	}
	if q.Spherical && roles[Longitude] && roles[Latitude] {
		return StructuredGrid
	}
	regular := true
	for _, info := range q.Axes {
		if info.Synthetic || len(info.Dims) != 1 || info.Dims[0] != info.Name {
			return StructuredGrid
		}
		regular = regular && info.Regular
	}
	if regular {
		return UniformGrid
	}
	return NonuniformRectilinear
}

// spans returns whether every dimension of every axis coordinate is one of
// dims.
func spans(dims []string, axes []*DimensionInfo) bool {
	have := stringSet(dims...)
	for _, info := range axes {
		for _, d := range info.Dims {
			if !have[d] {
				return false
			}
		}
	}
	return true
}

// explicitBounds returns whether the longitude and latitude axes among
// infos both carry a bounds attribute.
func explicitBounds(infos []*DimensionInfo) bool {
	var lon, lat bool
	for _, info := range infos {
		switch info.Role {
		case Longitude:
			lon = info.HasExplicitBounds()
		case Latitude:
			lat = info.HasExplicitBounds()
		}
	}
	return lon && lat
}
