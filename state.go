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
	"io"
)

// DataOrigin records where a dataset came from. It is carried through
// Load and State but never interpreted, except for Order.
type DataOrigin struct {
	Source string `json:"source"`
	ID     string `json:"id"`
	Order  string `json:"order,omitempty"`
}

// DatasetConfig is the serializable configuration of a Builder. Unbound
// axes are null.
type DatasetConfig struct {
	X      *string  `json:"x"`
	Y      *string  `json:"y"`
	Z      *string  `json:"z"`
	T      *string  `json:"t"`
	Slices Slices   `json:"slices"`
	TIndex int      `json:"t_index"`
	Arrays []string `json:"arrays"`
}

// State is the persisted form of a Builder's configuration.
type State struct {
	DataOrigin    *DataOrigin    `json:"data_origin,omitempty"`
	DatasetConfig *DatasetConfig `json:"dataset_config,omitempty"`
}

// ParseState reads a State from JSON.
func ParseState(r io.Reader) (*State, error) {
	s := new(State)
	if err := json.NewDecoder(r).Decode(s); err != nil {
		return nil, configErrorf("dataset_config", "%v", err)
	}
	return s, nil
}

// Write writes s to w as indented JSON.
func (s *State) Write(w io.Writer) error {
	e := json.NewEncoder(w)
	e.SetIndent("", "  ")
	return e.Encode(s)
}

func (c *DatasetConfig) mapping() AxisMapping {
	deref := func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	}
	return AxisMapping{X: deref(c.X), Y: deref(c.Y), Z: deref(c.Z), T: deref(c.T)}
}

// Load hands the builder a dataset and its configuration. If s has no
// dataset configuration, the axes are mapped automatically and every
// available field is requested. The configuration is checked in full
// before any of it is applied, and the mesh is rebuilt on the next read.
func (b *Builder) Load(d *Dataset, s *State) error {
	order := OrderC
	var origin *DataOrigin
	if s != nil && s.DataOrigin != nil {
		o := *s.DataOrigin
		origin = &o
		if o.Order != "" {
			var err error
			if order, err = ParseOrder(o.Order); err != nil {
				return err
			}
		}
	}

	if s == nil || s.DatasetConfig == nil {
		b.setDataset(d)
		b.auto()
		b.origin, b.order = origin, order
		return nil
	}

	c := s.DatasetConfig
	m := c.mapping()
	if err := m.Validate(d); err != nil {
		return err
	}
	if err := checkSlices(d, c.Slices); err != nil {
		return err
	}
	if err := checkTimeIndex(d, m, c.TIndex); err != nil {
		return err
	}

	b.setDataset(d)
	b.origin, b.order = origin, order
	b.axes = m
	b.slices = c.Slices.clone()
	b.tIndex = c.TIndex
	if c.Arrays != nil {
		b.fields = append([]string{}, c.Arrays...)
	} else {
		b.fields = nil
	}
	b.dirty = true
	return nil
}

// State returns the builder's current configuration. Loading the result
// into a builder reproduces this one's configuration.
func (b *Builder) State() *State {
	ref := func(s string) *string {
		if s == "" {
			return nil
		}
		return &s
	}
	s := &State{
		DatasetConfig: &DatasetConfig{
			X:      ref(b.axes.X),
			Y:      ref(b.axes.Y),
			Z:      ref(b.axes.Z),
			T:      ref(b.axes.T),
			Slices: b.slices.clone(),
			TIndex: b.tIndex,
		},
	}
	if b.fields != nil {
		s.DatasetConfig.Arrays = append([]string{}, b.fields...)
	}
	if b.origin != nil {
		o := *b.origin
		if o.Order != "" {
			o.Order = string(b.order)
		}
		s.DataOrigin = &o
	}
	return s
}
