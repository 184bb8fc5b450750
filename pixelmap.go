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
	"fmt"

	"github.com/ctessum/sparse"
	"gonum.org/v1/gonum/stat"
)

// Scale relates the coarse grid to the fine grid: each coarse cell
// covers Row fine rows and Col fine columns.
type Scale struct {
	Row, Col int
}

func (s Scale) check() error {
	if s.Row <= 0 || s.Col <= 0 {
		return fmt.Errorf("%w: got (%d, %d)", ErrScale, s.Row, s.Col)
	}
	return nil
}

// replicate calls f with the 1-D fine index and the 1-D coarse index of
// every pixel of a fine grid built by repeating each coarse cell
// scale.Row times along rows and scale.Col times along columns, and
// then cropping to fineShape.
func replicate(scale Scale, coarseShape, fineShape []int, f func(fine, coarse int)) error {
	if err := scale.check(); err != nil {
		return err
	}
	if len(coarseShape) != 2 || len(fineShape) != 2 {
		return fmt.Errorf("%w: grids must be two-dimensional; coarse=%v, fine=%v", ErrShape, coarseShape, fineShape)
	}
	if fineShape[0] > coarseShape[0]*scale.Row || fineShape[1] > coarseShape[1]*scale.Col {
		return fmt.Errorf("%w: fine grid %v is larger than coarse grid %v replicated by %v",
			ErrShape, fineShape, coarseShape, scale)
	}
	nx, cnx := fineShape[1], coarseShape[1]
	for j := 0; j < fineShape[0]; j++ {
		cj := j / scale.Row
		for i := 0; i < nx; i++ {
			f(j*nx+i, cj*cnx+i/scale.Col)
		}
	}
	return nil
}

// BuildPixelMap returns a fine-resolution field in which every pixel
// holds the row-major identifier of the coarse cell it belongs to.
func BuildPixelMap(scale Scale, coarseShape, fineShape []int) (*sparse.DenseArrayInt, error) {
	if len(fineShape) != 2 {
		return nil, fmt.Errorf("%w: fine grid must be two-dimensional; got %v", ErrShape, fineShape)
	}
	m := sparse.ZerosDenseInt(fineShape...)
	err := replicate(scale, coarseShape, fineShape, func(fine, coarse int) {
		m.Elements[fine] = coarse
	})
	if err != nil {
		return nil, fmt.Errorf("distseb: building pixel map: %w", err)
	}
	return m, nil
}

// Upsample replicates each cell of coarse scale.Row times along rows and
// scale.Col times along columns and crops the result to fineShape.
func Upsample(coarse *sparse.DenseArray, scale Scale, fineShape []int) (*sparse.DenseArray, error) {
	if len(fineShape) != 2 {
		return nil, fmt.Errorf("%w: fine grid must be two-dimensional; got %v", ErrShape, fineShape)
	}
	o := sparse.ZerosDense(fineShape...)
	err := replicate(scale, coarse.Shape, fineShape, func(fine, c int) {
		o.Elements[fine] = coarse.Elements[c]
	})
	if err != nil {
		return nil, fmt.Errorf("distseb: upsampling: %w", err)
	}
	return o, nil
}

// UpsampleField is the same as Upsample but carries validity along
// with the values.
func UpsampleField(coarse *Field, scale Scale, fineShape []int) (*Field, error) {
	if len(fineShape) != 2 {
		return nil, fmt.Errorf("%w: fine grid must be two-dimensional; got %v", ErrShape, fineShape)
	}
	o := NewField(fineShape...)
	err := replicate(scale, coarse.Shape, fineShape, func(fine, c int) {
		o.Elements[fine] = coarse.Elements[c]
		o.Valid[fine] = coarse.Valid[c]
	})
	if err != nil {
		return nil, fmt.Errorf("distseb: upsampling: %w", err)
	}
	return o, nil
}

// Aggregate returns the arithmetic mean of the valid pixels of fine
// that share each coarse cell identifier in pixelMap. The result has
// coarseShape; coarse cells without any valid fine pixel are missing.
func Aggregate(fine *Field, pixelMap *sparse.DenseArrayInt, coarseShape []int) *Field {
	o := NewField(coarseShape...)
	groups := make([][]float64, len(o.Elements))
	for i, id := range pixelMap.Elements {
		if v, ok := fine.At(i); ok {
			groups[id] = append(groups[id], v)
		}
	}
	for id, g := range groups {
		if len(g) > 0 {
			o.Put(id, stat.Mean(g, nil))
		}
	}
	return o
}

// spread is the inverse of Aggregate: it copies each coarse value to
// every fine pixel that belongs to it.
func spread(coarse *Field, pixelMap *sparse.DenseArrayInt) *Field {
	o := NewField(pixelMap.Shape...)
	for i, id := range pixelMap.Elements {
		o.Elements[i] = coarse.Elements[id]
		o.Valid[i] = coarse.Valid[id]
	}
	return o
}
