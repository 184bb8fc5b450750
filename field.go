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

package distseb

import (
	"math"

	"github.com/ctessum/sparse"
)

// Field is a two-dimensional gridded variable in which every pixel
// carries an explicit validity flag alongside its value. Values of
// invalid pixels are meaningless and should not be read.
type Field struct {
	*sparse.DenseArray
	Valid []bool
}

// NewField returns a field of the given shape in which every pixel
// is missing.
func NewField(shape ...int) *Field {
	a := sparse.ZerosDense(shape...)
	return &Field{DenseArray: a, Valid: make([]bool, len(a.Elements))}
}

// FilledField returns a field of the given shape in which every pixel
// is valid and equal to v.
func FilledField(v float64, shape ...int) *Field {
	f := NewField(shape...)
	for i := range f.Elements {
		f.Elements[i] = v
		f.Valid[i] = true
	}
	return f
}

// FieldFromArray copies a into a new field, marking NaN values as
// missing.
func FieldFromArray(a *sparse.DenseArray) *Field {
	f := &Field{DenseArray: a.Copy(), Valid: make([]bool, len(a.Elements))}
	for i, v := range f.Elements {
		f.Valid[i] = !math.IsNaN(v)
	}
	return f
}

// At returns the value at 1-D index i and whether it is valid.
func (f *Field) At(i int) (float64, bool) {
	return f.Elements[i], f.Valid[i]
}

// Put sets the value at 1-D index i. NaN values are stored as missing.
func (f *Field) Put(i int, v float64) {
	f.Elements[i] = v
	f.Valid[i] = !math.IsNaN(v)
}

// Invalidate marks the pixel at 1-D index i as missing.
func (f *Field) Invalidate(i int) {
	f.Elements[i] = 0
	f.Valid[i] = false
}

// Copy returns a deep copy of f.
func (f *Field) Copy() *Field {
	valid := make([]bool, len(f.Valid))
	copy(valid, f.Valid)
	return &Field{DenseArray: f.DenseArray.Copy(), Valid: valid}
}

// Array returns the values of f as a dense array in which missing
// pixels are set to NaN.
func (f *Field) Array() *sparse.DenseArray {
	a := f.DenseArray.Copy()
	for i, ok := range f.Valid {
		if !ok {
			a.Elements[i] = math.NaN()
		}
	}
	return a
}

// NumValid returns the number of valid pixels in f.
func (f *Field) NumValid() int {
	n := 0
	for _, ok := range f.Valid {
		if ok {
			n++
		}
	}
	return n
}

// gather returns the values of f at the given indices, with NaN for
// missing pixels.
func (f *Field) gather(idx []int) []float64 {
	o := make([]float64, len(idx))
	for k, i := range idx {
		if f.Valid[i] {
			o[k] = f.Elements[i]
		} else {
			o[k] = math.NaN()
		}
	}
	return o
}

// scatter stores v[k] at index idx[k].
func (f *Field) scatter(idx []int, v []float64) {
	for k, i := range idx {
		f.Put(i, v[k])
	}
}

// fill sets the pixels at the given indices to v.
func (f *Field) fill(idx []int, v float64) {
	for _, i := range idx {
		f.Put(i, v)
	}
}

// Mask marks the fine-resolution pixels that are still being iterated.
type Mask []bool

// Any returns whether any pixel is masked in.
func (m Mask) Any() bool {
	for _, v := range m {
		if v {
			return true
		}
	}
	return false
}

// Count returns the number of pixels masked in.
func (m Mask) Count() int {
	n := 0
	for _, v := range m {
		if v {
			n++
		}
	}
	return n
}

// Copy returns a copy of m.
func (m Mask) Copy() Mask {
	o := make(Mask, len(m))
	copy(o, m)
	return o
}

// gather returns the values of a at the given indices. If a is nil,
// every value is def.
func gather(a *sparse.DenseArray, idx []int, def float64) []float64 {
	o := make([]float64, len(idx))
	for k, i := range idx {
		if a == nil {
			o[k] = def
		} else {
			o[k] = a.Elements[i]
		}
	}
	return o
}

func copyInt(a *sparse.DenseArrayInt) *sparse.DenseArrayInt {
	o := sparse.ZerosDenseInt(a.Shape...)
	copy(o.Elements, a.Elements)
	return o
}

func sameShape(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i, v := range a {
		if b[i] != v {
			return false
		}
	}
	return true
}
