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
	"io"
	"math"
	"os"
	"sort"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
	"github.com/spatialmodel/distseb"
)

// fineVariable describes a fine-resolution forcing variable in the
// input file.
type fineVariable struct {
	name        string
	description string
	units       string
	required    bool
	field       func(in *distseb.Input) **sparse.DenseArray
}

// fineVariables are the forcing variables read from InputFile.
var fineVariables = []fineVariable{
	{"Tr_K", "Radiometric surface temperature", "K", true, func(in *distseb.Input) **sparse.DenseArray { return &in.Tr }},
	{"vza", "View zenith angle", "degrees", true, func(in *distseb.Input) **sparse.DenseArray { return &in.VZA }},
	{"T_A_K", "Air temperature", "K", true, func(in *distseb.Input) **sparse.DenseArray { return &in.Ta }},
	{"u", "Wind speed", "m s-1", true, func(in *distseb.Input) **sparse.DenseArray { return &in.U }},
	{"ea", "Vapour pressure", "mb", true, func(in *distseb.Input) **sparse.DenseArray { return &in.Ea }},
	{"p", "Atmospheric pressure", "mb", true, func(in *distseb.Input) **sparse.DenseArray { return &in.P }},
	{"Sn_C", "Canopy net shortwave radiation", "W m-2", true, func(in *distseb.Input) **sparse.DenseArray { return &in.SnC }},
	{"Sn_S", "Soil net shortwave radiation", "W m-2", true, func(in *distseb.Input) **sparse.DenseArray { return &in.SnS }},
	{"L_dn", "Downwelling longwave radiation", "W m-2", true, func(in *distseb.Input) **sparse.DenseArray { return &in.Ldn }},
	{"LAI", "Effective leaf area index", "m2 m-2", true, func(in *distseb.Input) **sparse.DenseArray { return &in.LAI }},
	{"h_C", "Canopy height", "m", true, func(in *distseb.Input) **sparse.DenseArray { return &in.HC }},
	{"emis_C", "Canopy emissivity", "-", true, func(in *distseb.Input) **sparse.DenseArray { return &in.EmisC }},
	{"emis_S", "Soil emissivity", "-", true, func(in *distseb.Input) **sparse.DenseArray { return &in.EmisS }},
	{"z_0M", "Roughness length for momentum", "m", true, func(in *distseb.Input) **sparse.DenseArray { return &in.Z0M }},
	{"d_0", "Zero-plane displacement height", "m", true, func(in *distseb.Input) **sparse.DenseArray { return &in.D0 }},
	{"z_u", "Wind measurement height", "m", true, func(in *distseb.Input) **sparse.DenseArray { return &in.ZU }},
	{"z_T", "Air temperature measurement height", "m", true, func(in *distseb.Input) **sparse.DenseArray { return &in.ZT }},
	{"leaf_width", "Leaf width", "m", false, func(in *distseb.Input) **sparse.DenseArray { return &in.LeafWidth }},
	{"z0_soil", "Soil roughness length", "m", false, func(in *distseb.Input) **sparse.DenseArray { return &in.Z0Soil }},
	{"alpha_PT", "Priestley-Taylor coefficient", "-", false, func(in *distseb.Input) **sparse.DenseArray { return &in.AlphaPT }},
	{"x_LAD", "Leaf angle distribution parameter", "-", false, func(in *distseb.Input) **sparse.DenseArray { return &in.XLAD }},
	{"f_c", "Fractional cover", "-", false, func(in *distseb.Input) **sparse.DenseArray { return &in.FC }},
	{"f_g", "Green fraction", "-", false, func(in *distseb.Input) **sparse.DenseArray { return &in.FG }},
	{"w_C", "Canopy width to height ratio", "-", false, func(in *distseb.Input) **sparse.DenseArray { return &in.WC }},
}

// openNCF opens the netCDF file at path. The caller is responsible
// for closing the returned file.
func openNCF(path string) (*os.File, *cdf.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("distsebutil: opening netcdf file: %v", err)
	}
	ff, err := cdf.Open(f)
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("distsebutil: reading netcdf file %s: %v", path, err)
	}
	return f, ff, nil
}

// hasVariable returns whether f holds variable name.
func hasVariable(f *cdf.File, name string) bool {
	for _, v := range f.Header.Variables() {
		if v == name {
			return true
		}
	}
	return false
}

// readNCF reads two-dimensional variable name out of netcdf file f.
// Leading dimensions of length one are dropped. Fill values are
// returned as NaN.
func readNCF(f *cdf.File, name string) (*sparse.DenseArray, error) {
	if !hasVariable(f, name) {
		return nil, fmt.Errorf("distsebutil: read netcdf: variable %s not in file", name)
	}
	dims := f.Header.Lengths(name)
	for len(dims) > 2 && dims[0] == 1 {
		dims = dims[1:]
	}
	if len(dims) != 2 {
		return nil, fmt.Errorf("distsebutil: read netcdf: variable %s has shape %v; it must be two-dimensional", name, dims)
	}
	r := f.Reader(name, nil, nil)
	buf := r.Zero(-1)
	if _, err := r.Read(buf); err != nil {
		return nil, fmt.Errorf("distsebutil: read netcdf variable %s: %v", name, err)
	}
	data := sparse.ZerosDense(dims...)
	var n int
	switch b := buf.(type) {
	case []float32:
		n = len(b)
		for i, v := range b {
			data.Elements[i] = float64(v)
		}
	case []float64:
		n = len(b)
		copy(data.Elements, b)
	case []int32:
		n = len(b)
		for i, v := range b {
			data.Elements[i] = float64(v)
		}
	case []int16:
		n = len(b)
		for i, v := range b {
			data.Elements[i] = float64(v)
		}
	case []uint8:
		n = len(b)
		for i, v := range b {
			data.Elements[i] = float64(v)
		}
	default:
		return nil, fmt.Errorf("distsebutil: read netcdf variable %s: unsupported type %T", name, buf)
	}
	if n != len(data.Elements) {
		return nil, fmt.Errorf("distsebutil: read netcdf variable %s: dims are %d but "+
			"array length is %d", name, len(data.Elements), n)
	}
	if fill, ok := fillValue(f, name); ok {
		for i, v := range data.Elements {
			if v == fill {
				data.Elements[i] = math.NaN()
			}
		}
	}
	return data, nil
}

// fillValue returns the fill value of variable name: its _FillValue
// attribute, or the default fill value of its type.
func fillValue(f *cdf.File, name string) (float64, bool) {
	switch v := f.Header.FillValue(name).(type) {
	case uint8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	}
	return 0, false
}

// Data holds the contents of the input files of a run.
type Data struct {
	*distseb.Input

	// ResistanceParams holds the per-pixel resistance parameters.
	ResistanceParams map[string]*sparse.DenseArray

	// Variables holds every variable read from InputFile, keyed by
	// its name in the file.
	Variables map[string]*sparse.DenseArray
}

// ReadInput reads the coarse target and the fine-resolution forcing
// specified by c.
func ReadInput(c *RunConfig) (*Data, error) {
	tf, target, err := openNCF(c.TargetFile)
	if err != nil {
		return nil, err
	}
	defer tf.Close()
	d := &Data{
		Input:     new(distseb.Input),
		Variables: make(map[string]*sparse.DenseArray),
	}
	if d.TargetRatio, err = readNCF(target, c.TargetVariable); err != nil {
		return nil, err
	}

	ff, fine, err := openNCF(c.InputFile)
	if err != nil {
		return nil, err
	}
	defer ff.Close()
	for _, v := range fineVariables {
		if !v.required && !hasVariable(fine, v.name) {
			continue
		}
		a, err := readNCF(fine, v.name)
		if err != nil {
			return nil, err
		}
		*v.field(d.Input) = a
		d.Variables[v.name] = a
	}
	if c.InitialL != "" {
		if d.InitialL, err = readNCF(fine, c.InitialL); err != nil {
			return nil, err
		}
	}
	if len(c.ResistanceParams) > 0 {
		d.ResistanceParams = make(map[string]*sparse.DenseArray, len(c.ResistanceParams))
	}
	for name, v := range c.ResistanceParams {
		a, err := readNCF(fine, v)
		if err != nil {
			return nil, fmt.Errorf("distsebutil: resistance parameter %s: %v", name, err)
		}
		d.ResistanceParams[name] = a
	}
	d.Scale = inferScale(c.Scale, d.TargetRatio.Shape, d.Tr.Shape)
	return d, nil
}

// inferScale fills in scale factors less than 1 as the number of fine
// pixels per coarse cell, rounded up.
func inferScale(s distseb.Scale, coarse, fine []int) distseb.Scale {
	ceilDiv := func(a, b int) int {
		if b <= 0 {
			return 0
		}
		return (a + b - 1) / b
	}
	if s.Row < 1 && len(coarse) == 2 && len(fine) == 2 {
		s.Row = ceilDiv(fine[0], coarse[0])
	}
	if s.Col < 1 && len(coarse) == 2 && len(fine) == 2 {
		s.Col = ceilDiv(fine[1], coarse[1])
	}
	return s
}

// ncfVariable is a variable to be written to the output file.
type ncfVariable struct {
	description, units string
	data               *sparse.DenseArray
	flags              *sparse.DenseArrayInt
}

// writeOutput writes the given two-dimensional variables and global
// attributes to netcdf file w.
func writeOutput(w *os.File, vars map[string]ncfVariable, attrs map[string]interface{}) error {
	var shape []int
	for _, v := range vars {
		if v.data != nil {
			shape = v.data.Shape
		} else {
			shape = v.flags.Shape
		}
		break
	}
	if len(shape) != 2 {
		return fmt.Errorf("distsebutil: writing output: invalid grid shape %v", shape)
	}
	h := cdf.NewHeader([]string{"y", "x"}, shape)
	h.AddAttribute("", "comment", "disTSEB disaggregated surface energy balance")
	h.AddAttribute("", "distseb_version", distseb.Version)

	// Sort the names so they write in the same order every time.
	attrNames := make([]string, 0, len(attrs))
	for n := range attrs {
		attrNames = append(attrNames, n)
	}
	sort.Strings(attrNames)
	for _, n := range attrNames {
		h.AddAttribute("", n, attrs[n])
	}

	names := make([]string, 0, len(vars))
	for n := range vars {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, name := range names {
		v := vars[name]
		if v.flags != nil {
			h.AddVariable(name, []string{"y", "x"}, []int32{0})
		} else {
			h.AddVariable(name, []string{"y", "x"}, []float32{0})
		}
		h.AddAttribute(name, "description", v.description)
		h.AddAttribute(name, "units", v.units)
	}
	h.Define()

	f, err := cdf.Create(w, h) // writes the header to w
	if err != nil {
		return fmt.Errorf("distsebutil: writing output header: %v", err)
	}
	for _, name := range names {
		if err = writeNCF(f, name, vars[name]); err != nil {
			return fmt.Errorf("distsebutil: writing variable %s to netcdf file: %v", name, err)
		}
	}
	return cdf.UpdateNumRecs(w)
}

func writeNCF(f *cdf.File, name string, v ncfVariable) error {
	end := f.Header.Lengths(name)
	start := make([]int, len(end))
	w := f.Writer(name, start, end)
	if v.flags != nil {
		data := make([]int32, len(v.flags.Elements))
		for i, e := range v.flags.Elements {
			data[i] = int32(e)
		}
		_, err := w.Write(data)
		return err
	}
	data := make([]float32, len(v.data.Elements))
	for i, e := range v.data.Elements {
		data[i] = float32(e)
	}
	_, err := w.Write(data)
	return err
}

// writeOutputFile creates the file at path and writes vars and attrs
// to it. The file is closed before returning.
func writeOutputFile(path string, vars map[string]ncfVariable, attrs map[string]interface{}) (err error) {
	w, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("distsebutil: problem creating output file: %v", err)
	}
	defer closeFile(w, path, &err)
	return writeOutput(w, vars, attrs)
}

// closeFile closes c and stores any error in err unless err already
// holds one.
func closeFile(c io.Closer, name string, err *error) {
	if cerr := c.Close(); cerr != nil && *err == nil {
		*err = fmt.Errorf("distsebutil: closing %s: %v", name, cerr)
	}
}
