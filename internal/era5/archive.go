package era5

import (
	"fmt"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"
)

// Archive is a gridded file opened for reading.
type Archive interface {
	// Variables lists every variable in the file, coordinates included.
	Variables() []string
	// Variable returns a reader for the named variable.
	Variable(name string) (VarReader, error)
	Close()
}

// VarReader gives access to one variable of an archive.
type VarReader interface {
	Dimensions() []string
	Attribute(key string) (any, bool)
	// Values returns the whole variable as nested slices.
	Values() (any, error)
	// Slice returns the rows [begin, end) of the outermost dimension as
	// nested slices.
	Slice(begin, end int64) (any, error)
}

// Opener opens the archive at path.
type Opener func(path string) (Archive, error)

// OpenNetCDF opens a NetCDF (classic or HDF5 based) file.
func OpenNetCDF(path string) (Archive, error) {
	nc, err := netcdf.Open(path)
	if err != nil {
		return nil, err
	}
	return &netcdfArchive{nc: nc}, nil
}

type netcdfArchive struct {
	nc api.Group
}

func (a *netcdfArchive) Variables() []string {
	return a.nc.ListVariables()
}

func (a *netcdfArchive) Variable(name string) (VarReader, error) {
	vg, err := a.nc.GetVarGetter(name)
	if err != nil {
		return nil, fmt.Errorf("variable %q: %w", name, err)
	}
	return netcdfVar{vg: vg}, nil
}

func (a *netcdfArchive) Close() {
	a.nc.Close()
}

type netcdfVar struct {
	vg api.VarGetter
}

func (v netcdfVar) Dimensions() []string {
	return v.vg.Dimensions()
}

func (v netcdfVar) Attribute(key string) (any, bool) {
	attrs := v.vg.Attributes()
	if attrs == nil {
		return nil, false
	}
	return attrs.Get(key)
}

func (v netcdfVar) Values() (any, error) {
	return v.vg.Values()
}

func (v netcdfVar) Slice(begin, end int64) (any, error) {
	return v.vg.GetSlice(begin, end)
}
