package sfs

// Per-iteration diagnostics. The observer hangs off the solver's callback
// and persists the evolving solution as co-registered rasters, plus
// mean/stdev and a histogram of the intensities for drift monitoring.
// Strictly read-only: deleting it must not change the solve.

import(
	"fmt"
	"log"

	"github.com/skypies/util/histogram"

	"github.com/lunokhod/sfsdem/pkg/dem"
	"github.com/lunokhod/sfsdem/pkg/emath"
	"github.com/lunokhod/sfsdem/pkg/lsq"
)

type Observer struct {
	cx        *Context
	OutPrefix string
	Previews  bool // also render false-color PNGs of each artifact
	iter      int
}

func NewObserver(cx *Context, outPrefix string) *Observer {
	return &Observer{cx: cx, OutPrefix: outPrefix}
}

func (o *Observer)OnIteration(s lsq.IterationSummary) {
	log.Printf("finished iteration %d: cost %.6e (change %.3e, lambda %.1e)",
		o.iter, s.Cost, s.CostChange, s.Lambda)

	demFile := fmt.Sprintf("%s-DEM-%d.asc", o.OutPrefix, o.iter)
	o.write(demFile, o.cx.DEM)

	pred := o.cx.Predict()

	// Calibrated prediction: what the sensor should have measured.
	computed := pred.Reflectance.Copy()
	for row := 0; row < computed.Rows(); row++ {
		for col := 0; col < computed.Cols(); col++ {
			computed.Set(col, row, o.cx.A[0]*computed.Get(col, row)+o.cx.A[1])
		}
	}

	geo := o.cx.DEM.Geo
	o.write(fmt.Sprintf("%s-measured-intensity-%d.asc", o.OutPrefix, o.iter),
		&dem.Model{Grid: pred.Intensity, Geo: geo, NoData: 0, HasNoData: true})
	o.write(fmt.Sprintf("%s-computed-intensity-%d.asc", o.OutPrefix, o.iter),
		&dem.Model{Grid: computed, Geo: geo, NoData: 0, HasNoData: true})

	o.logStats("measured", pred.Intensity, pred)
	o.logStats("computed", computed, pred)

	o.iter++
}

func (o *Observer)write(filename string, m *dem.Model) {
	log.Printf("writing: %s", filename)
	if err := dem.WriteASC(filename, m); err != nil {
		log.Printf("observer write %s failed: %v", filename, err)
		return
	}
	if o.Previews {
		if err := m.WritePreviewPNG(filename, filename+".png"); err != nil {
			log.Printf("observer preview %s failed: %v", filename, err)
		}
	}
}

func (o *Observer)logStats(name string, g *dem.Grid, pred Prediction) {
	var vals []float64
	h := histogram.Histogram{NumBuckets: 20, ValMin: 0, ValMax: 100}

	cols := g.Cols()
	for row := 0; row < g.Rows(); row++ {
		for col := 0; col < cols; col++ {
			if !pred.Valid[row*cols+col] {
				continue
			}
			v := g.Get(col, row)
			vals = append(vals, v)
			h.Add(histogram.ScalarVal(int(v * 100)))
		}
	}

	mean, stdev := emath.MeanStdev(vals)
	log.Printf("%s intensity: mean %.6f stdev %.6f, histogram %v", name, mean, stdev, h)
}
