package dem

import(
	"image"
	"math"

	"github.com/fogleman/gg"
	"github.com/lucasb-eyer/go-colorful"
)

// WritePreviewPNG renders the model as a false-color PNG, scaled to the
// range of its valid values, with a title annotation. No-data cells come
// out black. Purely diagnostic; the .asc artifacts are the real outputs.
func (m *Model)WritePreviewPNG(title, filename string) error {
	min, max := math.MaxFloat64, -math.MaxFloat64
	for row := 0; row < m.Rows(); row++ {
		for col := 0; col < m.Cols(); col++ {
			v := m.Get(col, row)
			if m.IsNoData(v) { continue }
			if v > max { max = v }
			if v < min { min = v }
		}
	}
	if max <= min {
		max = min + 1
	}

	img := image.NewRGBA(image.Rect(0, 0, m.Cols(), m.Rows()))
	for row := 0; row < m.Rows(); row++ {
		for col := 0; col < m.Cols(); col++ {
			v := m.Get(col, row)
			if m.IsNoData(v) { continue }
			t := (v - min) / (max - min)
			// blue (low) through to red (high)
			img.Set(col, row, colorful.Hsv(240*(1-t), 0.85, 0.25+0.75*t))
		}
	}

	dc := gg.NewContextForImage(img)
	dc.SetRGB(1, 1, 1)
	dc.DrawString(title, 8, 14)
	return dc.SavePNG(filename)
}
