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

// Package gridmesh builds typed geometric meshes from labeled
// multidimensional scientific datasets. It classifies coordinates into
// longitude, latitude, vertical and time roles, describes their geometry,
// chooses the cheapest mesh topology that can represent a field, applies
// slices and a time index, and optionally projects the result onto a
// sphere.
package gridmesh

// Version is the version of this library.
const Version = "0.1.0"
