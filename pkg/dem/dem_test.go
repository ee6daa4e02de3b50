package dem

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lunokhod/sfsdem/pkg/emath"
)

func TestGridCells(t *testing.T) {
	g := NewGrid(4, 3)
	g.Set(2, 1, 7.5)
	assert.Equal(t, 7.5, g.Get(2, 1))
	assert.Equal(t, 4, g.Cols())
	assert.Equal(t, 3, g.Rows())

	// Cell aliases the backing storage, so a solver writing through the
	// slice is visible via Get.
	cell := g.Cell(2, 1)
	require.Len(t, cell, 1)
	cell[0] = -2.25
	assert.Equal(t, -2.25, g.Get(2, 1))

	g2 := g.Copy()
	g2.Set(2, 1, 0)
	assert.Equal(t, -2.25, g.Get(2, 1))
}

func TestDatumGeodeticToCartesian(t *testing.T) {
	// On a sphere the conversion is plain spherical coordinates.
	p := Moon.GeodeticToCartesian(0, 0, 0)
	assert.InDelta(t, Moon.A, p[0], 1e-6)
	assert.InDelta(t, 0, p[1], 1e-6)
	assert.InDelta(t, 0, p[2], 1e-6)

	p = Moon.GeodeticToCartesian(90, 0, 100)
	assert.InDelta(t, 0, p[0], 1e-6)
	assert.InDelta(t, Moon.A+100, p[1], 1e-6)

	p = Moon.GeodeticToCartesian(0, 90, 0)
	assert.InDelta(t, Moon.A, p[2], 1e-6)

	// On the WGS84 ellipsoid the pole sits at the semi-minor axis.
	p = WGS84.GeodeticToCartesian(0, 90, 0)
	b := WGS84.A * math.Sqrt(1-WGS84.E2)
	assert.InDelta(t, b, p[2], 1e-6)
}

func TestDatumSurfaceFrame(t *testing.T) {
	up, east, north := Moon.SurfaceFrame(0, 0)
	assert.InDelta(t, 0, up.Sub(emath.Vec3{1, 0, 0}).Norm(), 1e-12)
	assert.InDelta(t, 0, east.Sub(emath.Vec3{0, 1, 0}).Norm(), 1e-12)
	assert.InDelta(t, 0, north.Sub(emath.Vec3{0, 0, 1}).Norm(), 1e-12)
}

func TestGridSpacing(t *testing.T) {
	geo := GeoReference{LonStep: 0.001, LatStep: -0.001}
	assert.InDelta(t, 0.001, geo.GridSpacing(5, 5), 1e-15)
	assert.InDelta(t, 0.001, geo.GridSpacing(12, 7), 1e-15)
}

func TestASCRoundTrip(t *testing.T) {
	m := &Model{
		Grid: NewGrid(3, 2),
		Geo: GeoReference{
			Datum:   Moon,
			LonUL:   10.0005,
			LatUL:   19.9995,
			LonStep: 0.001,
			LatStep: -0.001,
		},
		NoData:    -32768,
		HasNoData: true,
	}
	vals := []float64{1.5, 2, -32768, 4, 5.25, 6}
	for i, v := range vals {
		m.Set(i%3, i/3, v)
	}

	file := filepath.Join(t.TempDir(), "dem.asc")
	require.NoError(t, WriteASC(file, m))

	m2, err := ReadASC(file, Moon)
	require.NoError(t, err)

	assert.Equal(t, 3, m2.Cols())
	assert.Equal(t, 2, m2.Rows())
	assert.True(t, m2.HasNoData)
	assert.Equal(t, -32768.0, m2.NoData)
	assert.InDelta(t, m.Geo.LonUL, m2.Geo.LonUL, 1e-9)
	assert.InDelta(t, m.Geo.LatUL, m2.Geo.LatUL, 1e-9)
	assert.InDelta(t, m.Geo.LonStep, m2.Geo.LonStep, 1e-12)
	assert.InDelta(t, m.Geo.LatStep, m2.Geo.LatStep, 1e-12)

	for i, v := range vals {
		assert.Equal(t, v, m2.Get(i%3, i/3))
	}

	assert.True(t, m2.IsNoData(m2.Get(2, 0)))
	assert.False(t, m2.IsNoData(m2.Get(0, 0)))
}

func TestASCWithoutNoData(t *testing.T) {
	file := filepath.Join(t.TempDir(), "dem.asc")
	require.NoError(t, os.WriteFile(file, []byte(
		"ncols 2\nnrows 2\nxllcorner 0\nyllcorner 0\ncellsize 1\n1 2\n3 4\n"), 0644))

	m, err := ReadASC(file, Moon)
	require.NoError(t, err)
	assert.False(t, m.HasNoData)
	assert.False(t, m.IsNoData(1))
	assert.Equal(t, 4.0, m.Get(1, 1))
}

func TestASCMalformed(t *testing.T) {
	dir := t.TempDir()

	cases := map[string]string{
		"missing-header": "ncols 2\nnrows 2\ncellsize 1\n1 2 3 4\n",
		"short-data":     "ncols 2\nnrows 2\nxllcorner 0\nyllcorner 0\ncellsize 1\n1 2 3\n",
		"bad-value":      "ncols 2\nnrows 2\nxllcorner 0\nyllcorner 0\ncellsize 1\n1 2 3 potato\n",
		"no-data-at-all": "ncols 2\nnrows 2\nxllcorner 0\nyllcorner 0\ncellsize junk\n",
	}

	for name, contents := range cases {
		file := filepath.Join(dir, name+".asc")
		require.NoError(t, os.WriteFile(file, []byte(contents), 0644))

		_, err := ReadASC(file, Moon)
		require.Error(t, err, name)
		assert.ErrorIs(t, err, ErrFormat, name)
	}
}
