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

// ConfigurationError is returned when an axis binding, slice or dataset
// configuration is invalid. It is always returned before any builder state
// is modified.
type ConfigurationError struct {
	Field  string // configuration item, e.g. "x" or "slices.lon"
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("gridmesh: invalid configuration for %s: %s", e.Field, e.Reason)
}

func configErrorf(field, format string, args ...interface{}) error {
	return &ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// MissingFieldError is returned at build time when a requested field is not
// in the dataset.
type MissingFieldError struct {
	Name string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("gridmesh: field %s is not in the dataset", e.Name)
}

// MissingCoordinateError is returned at build time when an axis is bound to
// a coordinate that is not in the dataset.
type MissingCoordinateError struct {
	Axis Axis
	Name string
}

func (e *MissingCoordinateError) Error() string {
	return fmt.Sprintf("gridmesh: %s axis is bound to %s, which is not a coordinate of the dataset", e.Axis, e.Name)
}

// ClassificationAmbiguity reports that no coordinate of a dataset could be
// given a role. It is advisory: the role stays unbound and the mesh is built
// without it.
type ClassificationAmbiguity struct {
	Role CoordinateRole
}

func (e *ClassificationAmbiguity) Error() string {
	return fmt.Sprintf("gridmesh: no coordinate could be classified as %s", e.Role)
}
