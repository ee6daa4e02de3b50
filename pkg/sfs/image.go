package sfs

// Radiance image loading and bilinear sampling. Inputs can be ordinary
// gray PNG/TIFF (normalized to [0,1]), Radiance .hdr files (luminance
// channel), or a co-registered .asc raster.

import(
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"github.com/mdouchement/hdr"
	"github.com/mdouchement/hdr/hdrcolor"
	_ "github.com/mdouchement/hdr/codec/rgbe"
	_ "image/png"
	_ "golang.org/x/image/tiff"

	"github.com/lunokhod/sfsdem/pkg/dem"
)

// An Interp samples a float raster with bilinear interpolation. Callers
// must keep (x,y) inside [0,Cols-1) x [0,Rows-1).
type Interp struct {
	g *dem.Grid
}

func NewInterp(g *dem.Grid) *Interp { return &Interp{g: g} }

func (ip *Interp)Cols() int { return ip.g.Cols() }
func (ip *Interp)Rows() int { return ip.g.Rows() }

func (ip *Interp)At(x, y float64) float64 {
	col, row := int(x), int(y)
	fx, fy := x-float64(col), y-float64(row)

	v00 := ip.g.Get(col, row)
	v10 := ip.g.Get(col+1, row)
	v01 := ip.g.Get(col, row+1)
	v11 := ip.g.Get(col+1, row+1)

	return v00*(1-fx)*(1-fy) + v10*fx*(1-fy) + v01*(1-fx)*fy + v11*fx*fy
}

// LoadRadiance reads a radiance image into an interpolatable float grid.
func LoadRadiance(filename string) (*Interp, error) {
	if strings.ToLower(filepath.Ext(filename)) == ".asc" {
		m, err := dem.ReadASC(filename, dem.Datum{})
		if err != nil {
			return nil, err
		}
		return NewInterp(m.Grid), nil
	}

	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filename, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", filename, err)
	}

	b := img.Bounds()
	g := dem.NewGrid(b.Dx(), b.Dy())

	if hi, ok := img.(hdr.Image); ok {
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				xyz := hdrcolor.XYZModel.Convert(hi.HDRAt(x, y))
				_, lum, _, _ := xyz.(hdrcolor.Color).HDRXYZA()
				g.Set(x-b.Min.X, y-b.Min.Y, lum)
			}
		}
		return NewInterp(g), nil
	}

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			gray := color.Gray16Model.Convert(img.At(x, y)).(color.Gray16)
			g.Set(x-b.Min.X, y-b.Min.Y, float64(gray.Y)/65535.0)
		}
	}
	return NewInterp(g), nil
}
