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
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/gridmesh"
	"github.com/spf13/cast"
)

// Builder returns a mesh builder configured from cfg: the dataset manifest,
// an optional saved state and any overrides given as options.
func Builder(cfg *viper.Viper) (*gridmesh.Builder, error) {
	path := cfg.GetString("dataset")
	if path == "" {
		return nil, fmt.Errorf("gridmesh: no dataset manifest specified")
	}
	m, err := ReadManifest(path)
	if err != nil {
		return nil, err
	}
	d, err := m.Dataset()
	if err != nil {
		return nil, err
	}
	b := gridmesh.NewBuilder(d)
	b.Log = logrus.StandardLogger()

	s := &gridmesh.State{DataOrigin: m.Origin()}
	if statePath := cfg.GetString("state"); statePath != "" {
		if s, err = readState(statePath); err != nil {
			return nil, err
		}
	}
	if err = b.Load(d, s); err != nil {
		return nil, err
	}

	if o := cfg.GetString("order"); o != "" {
		order, err := gridmesh.ParseOrder(o)
		if err != nil {
			return nil, err
		}
		if err = b.SetOrder(order); err != nil {
			return nil, err
		}
	}
	if fields := cfg.GetStringSlice("fields"); len(fields) > 0 {
		b.SetFields(fields)
	}
	b.SetSpherical(cfg.GetBool("spherical"))

	radius, err := cast.ToFloat64E(cfg.Get("Sphere.Radius"))
	if err != nil {
		return nil, fmt.Errorf("gridmesh: Sphere.Radius: %v", err)
	}
	scale, err := cast.ToFloat64E(cfg.Get("Sphere.VerticalScale"))
	if err != nil {
		return nil, fmt.Errorf("gridmesh: Sphere.VerticalScale: %v", err)
	}
	if err = b.SetProjection(radius, scale); err != nil {
		return nil, err
	}

	computed, err := GetStringMapString("computed", cfg)
	if err != nil {
		return nil, err
	}
	if err = b.SetComputed(computed); err != nil {
		return nil, err
	}
	return b, nil
}

func readState(path string) (*gridmesh.State, error) {
	f, err := os.Open(os.ExpandEnv(path))
	if err != nil {
		return nil, fmt.Errorf("gridmesh: opening state file: %v", err)
	}
	defer f.Close()
	return gridmesh.ParseState(f)
}

// setLogLevel sets the level of the standard logger from the LogLevel
// option.
func setLogLevel(cfg *viper.Viper) error {
	lvl, err := logrus.ParseLevel(cfg.GetString("LogLevel"))
	if err != nil {
		return fmt.Errorf("gridmesh: %v", err)
	}
	logrus.SetLevel(lvl)
	return nil
}

// GetStringMapString returns a map[string]string from a viper configuration,
// accounting for the fact that it might be a json object if it was set
// from a command line argument.
func GetStringMapString(varName string, cfg *viper.Viper) (map[string]string, error) {
	i := cfg.Get(varName)
	switch v := i.(type) {
	case nil:
		return map[string]string{}, nil
	case map[string]string:
		return v, nil
	case map[string]interface{}:
		return cast.ToStringMapStringE(v)
	case string:
		o := make(map[string]string)
		if v == "" {
			return o, nil
		}
		d := json.NewDecoder(bytes.NewBufferString(v))
		if err := d.Decode(&o); err != nil {
			return nil, fmt.Errorf("gridmesh: invalid value for %s: %v", varName, err)
		}
		return o, nil
	default:
		return nil, fmt.Errorf("gridmesh: invalid type for %s: %#v", varName, i)
	}
}
