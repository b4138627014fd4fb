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
	"io"
	"strings"

	"github.com/lnashier/viper"
	"github.com/spatialmodel/gridmesh"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to GridMesh.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "dataset",
			usage: `
              dataset specifies the location of the TOML manifest
              describing the dataset to build meshes from.`,
			shorthand:  "d",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "state",
			usage: `
              state specifies the location of a saved JSON state holding the
              axis bindings, slices, time index and fields to use. If it is
              not given, axes are mapped automatically from the dataset's
              first available field.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "LogLevel",
			usage: `
              LogLevel specifies the level of log messages to print: one of
              debug, info, warning or error.`,
			defaultVal: "info",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "spherical",
			usage: `
              spherical specifies whether the mesh is to be projected onto a
              sphere, with x, y and z taken as longitude, latitude and
              elevation.`,
			shorthand:  "s",
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{buildCmd.Flags(), describeCmd.Flags()},
		},
		{
			name: "Sphere.Radius",
			usage: `
              Sphere.Radius is the radius of the sphere used for spherical
              projection. The default is the Earth's radius in km.`,
			defaultVal: gridmesh.DefaultRadius,
			flagsets:   []*pflag.FlagSet{buildCmd.Flags()},
		},
		{
			name: "Sphere.VerticalScale",
			usage: `
              Sphere.VerticalScale is the factor by which elevations are
              exaggerated in spherical projection.`,
			defaultVal: gridmesh.DefaultVerticalScale,
			flagsets:   []*pflag.FlagSet{buildCmd.Flags()},
		},
		{
			name: "order",
			usage: `
              order specifies the order in which N-dimensional fields are
              flattened: C (last dimension fastest) or F (first dimension
              fastest). If it is empty, the order from the saved state is used.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{buildCmd.Flags()},
		},
		{
			name: "fields",
			usage: `
              fields specifies the fields to place on the mesh. If it is
              empty, the fields from the saved state or all available
              fields are used.`,
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{buildCmd.Flags(), describeCmd.Flags()},
		},
		{
			name: "computed",
			usage: `
              computed specifies fields to compute from the built fields, as
              a map of field names to expressions, for example
              {"ratio":"no2 / o3"}. Expressions may use exp, log, sqrt
              and abs.`,
			defaultVal: map[string]string{},
			flagsets:   []*pflag.FlagSet{buildCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("GRIDMESH")

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case []string:
				set.StringSlice(option.name, option.defaultVal.([]string), option.usage)
			case bool:
				if option.shorthand == "" {
					set.Bool(option.name, option.defaultVal.(bool), option.usage)
				} else {
					set.BoolP(option.name, option.shorthand, option.defaultVal.(bool), option.usage)
				}
			case float64:
				set.Float64(option.name, option.defaultVal.(float64), option.usage)
			case map[string]string:
				b := bytes.NewBuffer(nil)
				e := json.NewEncoder(b)
				e.Encode(option.defaultVal)
				set.String(option.name, strings.TrimSpace(b.String()), option.usage)
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(describeCmd)
	Root.AddCommand(buildCmd)
	Root.AddCommand(stateCmd)
}

// setConfig finds and reads in the configuration file, if there is one,
// and sets the log level.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("gridmesh: problem reading configuration file: %v", err)
		}
	}
	return setLogLevel(Cfg)
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "gridmesh",
	Short: "Build geometric meshes from labeled scientific datasets.",
	Long: `GridMesh turns a labeled multidimensional dataset into a geometric mesh
suitable for 3D visualization. It works out which coordinates are longitude,
latitude, elevation and time, picks the simplest mesh that can hold the
selected fields, and optionally projects the mesh onto a sphere.

Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'GRIDMESH_var' where 'var' is the
name of the variable to be set.
Refer to https://github.com/spf13/viper for additional configuration information.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of GridMesh.",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "GridMesh v%s\n", gridmesh.Version)
	},
	DisableAutoGenTag: true,
}

// describeCmd prints how the dataset's coordinates were interpreted.
var describeCmd = &cobra.Command{
	Use:   "describe",
	Short: "Describe the coordinates of a dataset.",
	Long: `describe prints the role and geometry of every coordinate in the dataset,
the current axis bindings, the available fields and the mesh topology that
would be built.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := Builder(Cfg)
		if err != nil {
			return err
		}
		return describe(cmd.OutOrStdout(), b)
	},
	DisableAutoGenTag: true,
}

// buildCmd builds the mesh and prints a summary of it.
var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build a mesh.",
	Long: `build builds the mesh for the current configuration and prints its
topology, dimensions, extents and the range of each field.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := Builder(Cfg)
		if err != nil {
			return err
		}
		var m *gridmesh.Mesh
		if b.Spherical() {
			m, err = b.SphericalMesh()
		} else {
			m, err = b.Mesh()
		}
		if err != nil {
			return err
		}
		return summarize(cmd.OutOrStdout(), m)
	},
	DisableAutoGenTag: true,
}

// stateCmd prints the normalized configuration.
var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Print the configuration as a saved state.",
	Long: `state loads the dataset and the saved state, if any, and prints the
resulting configuration in the saved state format.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := Builder(Cfg)
		if err != nil {
			return err
		}
		return b.State().Write(cmd.OutOrStdout())
	},
	DisableAutoGenTag: true,
}

func describe(w io.Writer, b *gridmesh.Builder) error {
	c := b.Classification()
	fmt.Fprintln(w, "coordinates:")
	for _, name := range b.AvailableCoordinates() {
		info, err := b.DimensionInfo(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "  %s\n", info)
	}
	for _, a := range c.Advisories {
		fmt.Fprintf(w, "note: %v\n", a)
	}
	axes := b.Axes()
	fmt.Fprintf(w, "axes: x=%q y=%q z=%q t=%q\n", axes.X, axes.Y, axes.Z, axes.T)
	fmt.Fprintf(w, "available fields: %s\n", strings.Join(b.AvailableFields(), ", "))
	if n := b.TimeSize(); n > 0 {
		labels := b.TimeLabels()
		fmt.Fprintf(w, "time steps: %d (%s to %s)\n", n, labels[0], labels[n-1])
	}
	topo, err := b.Topology()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "topology: %s\n", topo)
	return nil
}

func summarize(w io.Writer, m *gridmesh.Mesh) error {
	fmt.Fprintf(w, "topology: %s\n", m.Topology)
	fmt.Fprintf(w, "key: %s\n", m.Key)
	fmt.Fprintf(w, "dimensions: %v\n", m.Dimensions)
	fmt.Fprintf(w, "points: %d\n", m.NumPoints())
	for i, ext := range m.Extents() {
		fmt.Fprintf(w, "%s (%s): [%g, %g]\n", gridmesh.SpatialAxes[i], m.AxisNames[i], ext[0], ext[1])
	}
	for _, name := range m.FieldNames() {
		r, err := m.DataRange(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "field %s: [%g, %g]\n", name, r[0], r[1])
	}
	for _, name := range m.Skipped {
		fmt.Fprintf(w, "skipped field %s\n", name)
	}
	return nil
}
