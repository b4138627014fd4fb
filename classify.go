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
	"strings"
	"unicode"

	"github.com/sirupsen/logrus"
)

// CoordinateRole is the semantic meaning of a coordinate variable.
type CoordinateRole int

// Coordinate roles.
const (
	Unknown CoordinateRole = iota
	Longitude
	Latitude
	Vertical
	Time
)

func (r CoordinateRole) String() string {
	switch r {
	case Longitude:
		return "longitude"
	case Latitude:
		return "latitude"
	case Vertical:
		return "vertical"
	case Time:
		return "time"
	default:
		return "unknown"
	}
}

// Spatial returns whether r places data in space.
func (r CoordinateRole) Spatial() bool {
	return r == Longitude || r == Latitude || r == Vertical
}

func stringSet(s ...string) map[string]bool {
	o := make(map[string]bool, len(s))
	for _, v := range s {
		o[v] = true
	}
	return o
}

var (
	longitudeUnits = stringSet("degrees_east", "degree_east", "degree_e", "degrees_e", "degreee", "degreese")
	latitudeUnits  = stringSet("degrees_north", "degree_north", "degree_n", "degrees_n", "degreen", "degreesn")

	// timeUnits is the vocabulary of time unit tokens, including the
	// "since" of reference-date units.
	timeUnits = stringSet("since",
		"second", "seconds", "day", "days", "hour", "hours", "minute", "minutes",
		"s", "sec", "secs", "shake", "shakes",
		"sidereal_day", "sidereal_days", "sidereal_hour", "sidereal_hours",
		"sidereal_minute", "sidereal_minutes", "sidereal_second", "sidereal_seconds",
		"sidereal_year", "sidereal_years", "tropical_year", "tropical_years",
		"lunar_month", "lunar_months", "common_year", "common_years",
		"leap_year", "leap_years", "julian_year", "julian_years",
		"gregorian_year", "gregorian_years", "sidereal_month", "sidereal_months",
		"tropical_month", "tropical_months",
		"d", "min", "mins", "hrs", "h", "fortnight", "fortnights", "week",
		"jiffy", "jiffies", "year", "years", "yr", "yrs", "a", "eon", "eons",
		"month", "months")

	verticalUnits = stringSet(
		"bar", "millibar", "decibar", "atmosphere", "atm", "pascal", "pa", "hpa",
		"meter", "meters", "metre", "metres", "m", "kilometer", "kilometers", "km")

	longitudeNames = stringSet("longitude")
	latitudeNames  = stringSet("latitude")
	timeNames      = stringSet("time")
	verticalNames  = stringSet("depth", "level")
)

// Classify returns the role of a single coordinate from its attributes and
// element type. Rules are tried in priority order and the first match wins:
// the axis attribute, longitude/latitude units, time units, the positive and
// calendar attributes, the standard name and finally the element type.
// Unrecognized coordinates are Unknown.
func Classify(name string, attrs Attrs, dtype DType) CoordinateRole {
	switch attrs.Get(AttrAxis) {
	case "X":
		return Longitude
	case "Y":
		return Latitude
	case "Z":
		return Vertical
	case "T":
		return Time
	}

	if units := strings.ToLower(strings.TrimSpace(attrs.Get(AttrUnits))); units != "" {
		if longitudeUnits[units] {
			return Longitude
		}
		if latitudeUnits[units] {
			return Latitude
		}
		matches := 0
		for tok := range stringSet(strings.Fields(units)...) {
			if timeUnits[tok] {
				matches++
			}
		}
		if matches >= 2 {
			return Time
		}
	}

	switch strings.ToLower(attrs.Get(AttrPositive)) {
	case "up", "down":
		return Vertical
	}
	if attrs.Get(AttrCalendar) != "" {
		return Time
	}

	switch std := attrs.Get(AttrStandardName); {
	case longitudeNames[std]:
		return Longitude
	case latitudeNames[std]:
		return Latitude
	case timeNames[std]:
		return Time
	case verticalNames[std]:
		return Vertical
	}

	if dtype.timeLike() {
		return Time
	}
	return Unknown
}

// canBeVertical returns whether a dimension coordinate that no rule
// recognized may still be a vertical axis because its units are a pressure
// or a length.
func canBeVertical(v *Variable) bool {
	if !v.selfIndexed() {
		return false
	}
	toks := strings.FieldsFunc(strings.ToLower(v.Attrs.Get(AttrUnits)), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	for _, tok := range toks {
		if verticalUnits[tok] {
			return true
		}
	}
	return false
}

// canBeTime returns whether a dimension coordinate is named after a time
// unit, e.g. "days" or "month".
func canBeTime(v *Variable) bool {
	return v.selfIndexed() && timeUnits[strings.ToLower(v.Name)]
}

// Classification is the dataset-wide assignment of roles to coordinates.
// Each role is held by at most one coordinate.
type Classification struct {
	roles  map[string]CoordinateRole
	byRole map[CoordinateRole]string

	// Advisories lists the roles that no coordinate could fill.
	Advisories []*ClassificationAmbiguity
}

// ClassifyDataset classifies every coordinate of d. Coordinates are visited
// in declaration order and the first coordinate to match a role keeps it;
// later matches for a claimed role are Unknown. Roles still missing after
// that pass are filled from dimension naming conventions: a dimension
// coordinate with pressure or length units may become Vertical and one
// named after a time unit may become Time.
func ClassifyDataset(d *Dataset, log logrus.FieldLogger) *Classification {
	c := &Classification{
		roles:  make(map[string]CoordinateRole),
		byRole: make(map[CoordinateRole]string),
	}
	for _, name := range d.Coordinates() {
		v, _ := d.Var(name)
		role := Classify(name, v.Attrs, v.DType)
		if role == Unknown {
			c.roles[name] = Unknown
			continue
		}
		if claimed, ok := c.byRole[role]; ok {
			if log != nil {
				log.WithFields(logrus.Fields{
					"coordinate": name,
					"role":       role.String(),
					"holder":     claimed,
				}).Debug("gridmesh: role already claimed")
			}
			c.roles[name] = Unknown
			continue
		}
		c.claim(name, role)
	}

	for _, name := range d.Coordinates() {
		if c.roles[name] != Unknown {
			continue
		}
		v, _ := d.Var(name)
		if _, ok := c.byRole[Vertical]; !ok && canBeVertical(v) {
			c.claim(name, Vertical)
			continue
		}
		if _, ok := c.byRole[Time]; !ok && canBeTime(v) {
			c.claim(name, Time)
		}
	}

	for _, role := range []CoordinateRole{Longitude, Latitude, Vertical, Time} {
		if _, ok := c.byRole[role]; ok {
			continue
		}
		a := &ClassificationAmbiguity{Role: role}
		c.Advisories = append(c.Advisories, a)
		if log != nil {
			log.WithField("role", role.String()).Debug(a.Error())
		}
	}
	return c
}

func (c *Classification) claim(name string, role CoordinateRole) {
	c.roles[name] = role
	c.byRole[role] = name
}

// Role returns the role assigned to coordinate name.
func (c *Classification) Role(name string) CoordinateRole {
	return c.roles[name]
}

// Coordinate returns the name of the coordinate holding role, or "".
func (c *Classification) Coordinate(role CoordinateRole) string {
	return c.byRole[role]
}
