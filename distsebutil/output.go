/*
Copyright © 2018 the disTSEB authors.
This file is part of disTSEB.

disTSEB is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

disTSEB is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with disTSEB.  If not, see <http://www.gnu.org/licenses/>.
*/

package distsebutil

import (
	"fmt"
	"math"
	"sort"

	"github.com/Knetic/govaluate"
	"github.com/ctessum/sparse"
)

// Outputter calculates derived output variables.
//
// outputVariables maps the names of the variables to be calculated to
// expressions that define how they are calculated. These expressions
// can use model results, input variables, other output variables, and
// functions.
type Outputter struct {
	outputVariables map[string]string
	expressions     map[string]*govaluate.EvaluableExpression

	// order is the order in which the output variables are evaluated,
	// so that variables are calculated before they are used.
	order []string

	outputFunctions map[string]govaluate.ExpressionFunction
}

// NewOutputter initializes a new Outputter and adds a set of default
// output functions. Default functions include:
//
// 'exp(x)' which applies the exponential function e^x.
//
// 'abs(x)' which returns the absolute value of x.
//
// 'ratio(a, b)' which returns a / b, or NaN if b is zero.
func NewOutputter(outputVariables map[string]string, outputFunctions map[string]govaluate.ExpressionFunction) (*Outputter, error) {
	defaultOutputFuncs := map[string]govaluate.ExpressionFunction{
		"exp": func(arg ...interface{}) (interface{}, error) {
			if len(arg) != 1 {
				return nil, fmt.Errorf("distsebutil: got %d arguments for function 'exp', but needs 1", len(arg))
			}
			return math.Exp(arg[0].(float64)), nil
		},
		"abs": func(arg ...interface{}) (interface{}, error) {
			if len(arg) != 1 {
				return nil, fmt.Errorf("distsebutil: got %d arguments for function 'abs', but needs 1", len(arg))
			}
			return math.Abs(arg[0].(float64)), nil
		},
		"ratio": func(arg ...interface{}) (interface{}, error) {
			if len(arg) != 2 {
				return nil, fmt.Errorf("distsebutil: got %d arguments for function 'ratio', but needs 2", len(arg))
			}
			a, b := arg[0].(float64), arg[1].(float64)
			if b == 0 {
				return math.NaN(), nil
			}
			return a / b, nil
		},
	}
	for key, val := range outputFunctions {
		defaultOutputFuncs[key] = val
	}

	o := &Outputter{
		outputVariables: outputVariables,
		expressions:     make(map[string]*govaluate.EvaluableExpression, len(outputVariables)),
		outputFunctions: defaultOutputFuncs,
	}
	for name, expr := range outputVariables {
		e, err := govaluate.NewEvaluableExpressionWithFunctions(expr, o.outputFunctions)
		if err != nil {
			return nil, fmt.Errorf("distsebutil: output variable %s: %v", name, err)
		}
		o.expressions[name] = e
	}
	if err := o.sortVariables(); err != nil {
		return nil, err
	}
	return o, nil
}

// sortVariables orders the output variables so that every variable is
// evaluated after the output variables its expression uses.
func (o *Outputter) sortVariables() error {
	names := make([]string, 0, len(o.expressions))
	for n := range o.expressions {
		names = append(names, n)
	}
	sort.Strings(names)

	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(names))
	var visit func(n string) error
	visit = func(n string) error {
		switch state[n] {
		case done:
			return nil
		case visiting:
			return fmt.Errorf("distsebutil: output variable %s is defined in terms of itself", n)
		}
		state[n] = visiting
		for _, v := range removeDuplicates(o.expressions[n].Vars()) {
			if _, ok := o.expressions[v]; ok {
				if err := visit(v); err != nil {
					return err
				}
			}
		}
		state[n] = done
		o.order = append(o.order, n)
		return nil
	}
	for _, n := range names {
		if err := visit(n); err != nil {
			return err
		}
	}
	return nil
}

// removeDuplicates removes all duplicated strings from a slice, returning a
// slice that contains only unique strings.
func removeDuplicates(s []string) []string {
	result := make([]string, 0, len(s))
	seen := make(map[string]struct{})
	for _, val := range s {
		if _, ok := seen[val]; !ok {
			result = append(result, val)
			seen[val] = struct{}{}
		}
	}
	return result
}

// CheckOutputVars checks that every variable used by the output
// expressions is either available or another output variable, and
// that no output variable replaces an available one.
func (o *Outputter) CheckOutputVars(available map[string]*sparse.DenseArray) error {
	for _, n := range o.order {
		if _, ok := available[n]; ok {
			return fmt.Errorf("distsebutil: output variable name '%s' is already used by a model variable", n)
		}
		for _, v := range o.expressions[n].Vars() {
			_, isModel := available[v]
			_, isOutput := o.expressions[v]
			if !isModel && !isOutput {
				return fmt.Errorf("distsebutil: undefined variable name '%s' in output variable %s", v, n)
			}
		}
	}
	return nil
}

// Results evaluates the output variables for every pixel of the
// variables in vars, which must all have the same shape. Pixels where
// an expression cannot be evaluated are NaN.
func (o *Outputter) Results(vars map[string]*sparse.DenseArray) (map[string]*sparse.DenseArray, error) {
	if err := o.CheckOutputVars(vars); err != nil {
		return nil, err
	}
	all := make(map[string]*sparse.DenseArray, len(vars)+len(o.order))
	var shape []int
	for k, v := range vars {
		all[k] = v
		shape = v.Shape
	}
	out := make(map[string]*sparse.DenseArray, len(o.order))
	for _, n := range o.order {
		e := o.expressions[n]
		names := removeDuplicates(e.Vars())
		r := sparse.ZerosDense(shape...)
		params := make(map[string]interface{}, len(names))
		for i := range r.Elements {
			for _, v := range names {
				params[v] = all[v].Elements[i]
			}
			val, err := e.Evaluate(params)
			if err != nil {
				return nil, fmt.Errorf("distsebutil: evaluating output variable %s: %v", n, err)
			}
			f, ok := val.(float64)
			if !ok {
				return nil, fmt.Errorf("distsebutil: output variable %s evaluates to %T; it must be a number", n, val)
			}
			r.Elements[i] = f
		}
		all[n] = r
		out[n] = r
	}
	return out, nil
}
