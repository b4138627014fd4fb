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
	"math"
	"sort"

	"github.com/Knetic/govaluate"
	"github.com/spf13/cast"
)

// computedFuncs are the functions available to computed field expressions.
var computedFuncs = map[string]govaluate.ExpressionFunction{
	"exp":  unaryFunc("exp", math.Exp),
	"log":  unaryFunc("log", math.Log),
	"sqrt": unaryFunc("sqrt", math.Sqrt),
	"abs":  unaryFunc("abs", math.Abs),
}

func unaryFunc(name string, f func(float64) float64) govaluate.ExpressionFunction {
	return func(args ...interface{}) (interface{}, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("gridmesh: got %d arguments for function '%s', but needs 1", len(args), name)
		}
		v, err := cast.ToFloat64E(args[0])
		if err != nil {
			return nil, fmt.Errorf("gridmesh: function '%s': %v", name, err)
		}
		return f(v), nil
	}
}

// parseComputed parses the expressions defining computed fields.
func parseComputed(src map[string]string) (map[string]*govaluate.EvaluableExpression, error) {
	o := make(map[string]*govaluate.EvaluableExpression, len(src))
	for name, expr := range src {
		e, err := govaluate.NewEvaluableExpressionWithFunctions(expr, computedFuncs)
		if err != nil {
			return nil, configErrorf("computed."+name, "%v", err)
		}
		o[name] = e
	}
	return o, nil
}

// addComputed evaluates each expression element-wise over the fields of m
// and adds the results to m as new fields. Computed fields may not refer to
// each other or replace an existing field.
func addComputed(m *Mesh, exprs map[string]*govaluate.EvaluableExpression) error {
	names := make([]string, 0, len(exprs))
	for name := range exprs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if _, ok := m.Fields[name]; ok {
			return configErrorf("computed."+name, "%s is already a field", name)
		}
	}

	results := make(map[string]*Field, len(names))
	for _, name := range names {
		e := exprs[name]
		vars := e.Vars()
		n := -1
		loc := PointData
		for _, v := range vars {
			f, ok := m.Fields[v]
			if !ok {
				return &MissingFieldError{Name: v}
			}
			if n >= 0 && len(f.Values) != n {
				return fmt.Errorf("gridmesh: computed field %s mixes fields of different lengths", name)
			}
			n = len(f.Values)
			loc = f.Location
		}
		if n < 0 {
			n = m.NumPoints()
		}
		values := make([]float64, n)
		params := make(map[string]interface{}, len(vars))
		for i := range values {
			for _, v := range vars {
				params[v] = m.Fields[v].Values[i]
			}
			r, err := e.Evaluate(params)
			if err != nil {
				return fmt.Errorf("gridmesh: computed field %s: %v", name, err)
			}
			if b, ok := r.(bool); ok {
				r = 0.
				if b {
					r = 1.
				}
			}
			if values[i], err = cast.ToFloat64E(r); err != nil {
				return fmt.Errorf("gridmesh: computed field %s: %v", name, err)
			}
		}
		results[name] = &Field{Name: name, Location: loc, Values: values}
	}
	for name, f := range results {
		m.Fields[name] = f
	}
	return nil
}
