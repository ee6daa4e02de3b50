package dem

// Reader/writer for ESRI ASCII grid (.asc) rasters. The format carries the
// georeference (lower-left corner + cell size) and the no-data sentinel in
// its header, so one file round-trips everything a Model holds. Values are
// row-major starting from the northernmost row.

import(
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ErrFormat marks unreadable or malformed raster data. Non-recoverable:
// it means the input file is corrupt, not that a cell is missing.
var ErrFormat = errors.New("malformed raster")

// ReadASC loads a Model from an ESRI ASCII grid file, placed on the given
// datum.
func ReadASC(filename string, datum Datum) (*Model, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filename, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 1024*1024), 1024*1024)
	sc.Split(bufio.ScanWords)

	next := func() (string, bool) {
		if !sc.Scan() {
			return "", false
		}
		return sc.Text(), true
	}

	header := map[string]float64{}
	var firstVal string

	// Header lines are `key value` pairs; the first bare number is data.
	for {
		tok, ok := next()
		if !ok {
			return nil, fmt.Errorf("%w: %s: missing data section", ErrFormat, filename)
		}
		if _, err := strconv.ParseFloat(tok, 64); err == nil {
			firstVal = tok
			break
		}
		val, ok := next()
		if !ok {
			return nil, fmt.Errorf("%w: %s: header key %q has no value", ErrFormat, filename, tok)
		}
		v, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: header %s=%q", ErrFormat, filename, tok, val)
		}
		header[strings.ToLower(tok)] = v
	}

	for _, key := range []string{"ncols", "nrows", "xllcorner", "yllcorner", "cellsize"} {
		if _, ok := header[key]; !ok {
			return nil, fmt.Errorf("%w: %s: header missing %s", ErrFormat, filename, key)
		}
	}

	cols := int(header["ncols"])
	rows := int(header["nrows"])
	if cols < 1 || rows < 1 {
		return nil, fmt.Errorf("%w: %s: bad size %dx%d", ErrFormat, filename, cols, rows)
	}
	cellsize := header["cellsize"]

	m := &Model{
		Grid: NewGrid(cols, rows),
		Geo: GeoReference{
			Datum:   datum,
			LonUL:   header["xllcorner"] + 0.5*cellsize,
			LatUL:   header["yllcorner"] + (float64(rows)-0.5)*cellsize,
			LonStep: cellsize,
			LatStep: -cellsize,
		},
	}
	if nd, ok := header["nodata_value"]; ok {
		m.NoData = nd
		m.HasNoData = true
	}

	tok := firstVal
	for i := 0; i < cols*rows; i++ {
		if i > 0 {
			var ok bool
			if tok, ok = next(); !ok {
				return nil, fmt.Errorf("%w: %s: short data, got %d of %d values",
					ErrFormat, filename, i, cols*rows)
			}
		}
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: bad value %q", ErrFormat, filename, tok)
		}
		m.Grid.Set(i%cols, i/cols, v)
	}

	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", filename, err)
	}
	return m, nil
}

// WriteASC writes the model back out as an ESRI ASCII grid, preserving the
// georeference and no-data sentinel of the input it came from.
func WriteASC(filename string, m *Model) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("open+w %s: %w", filename, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	cols, rows := m.Cols(), m.Rows()
	cellsize := m.Geo.LonStep

	fmt.Fprintf(w, "ncols %d\n", cols)
	fmt.Fprintf(w, "nrows %d\n", rows)
	fmt.Fprintf(w, "xllcorner %.10g\n", m.Geo.LonUL-0.5*cellsize)
	fmt.Fprintf(w, "yllcorner %.10g\n", m.Geo.LatUL-(float64(rows)-0.5)*cellsize)
	fmt.Fprintf(w, "cellsize %.10g\n", cellsize)
	if m.HasNoData {
		fmt.Fprintf(w, "NODATA_value %.10g\n", m.NoData)
	}

	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			if col > 0 {
				fmt.Fprint(w, " ")
			}
			fmt.Fprintf(w, "%.10g", m.Get(col, row))
		}
		fmt.Fprint(w, "\n")
	}

	return w.Flush()
}
