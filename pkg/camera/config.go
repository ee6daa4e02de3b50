package camera

import(
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/lunokhod/sfsdem/pkg/dem"
	"github.com/lunokhod/sfsdem/pkg/emath"
)

/* Example camera sidecar ...

type: pinhole
position: [1740000, 0, 0]
target: [1737400, 0, 0]
up: [0, 0, 1]
focal_px: 2500
center_px: [512, 512]
sun: [140000000000, 50000000000, 10000000000]

*/

type Config struct {
	Type     string      `yaml:"type"` // "pinhole" or "nadir"
	Position [3]float64  `yaml:"position"`
	Target   [3]float64  `yaml:"target"`
	Up       [3]float64  `yaml:"up"`
	FocalPx  float64     `yaml:"focal_px"`
	CenterPx [2]float64  `yaml:"center_px"`
	Sun      *[3]float64 `yaml:"sun"`

	// Only for type nadir
	LonLat        [2]float64 `yaml:"lonlat"`
	Altitude      float64    `yaml:"altitude"`
	PixelsPerUnit float64    `yaml:"pixels_per_unit"`
}

func LoadConfig(filename string) (Config, error) {
	var c Config

	contents, err := os.ReadFile(filename)
	if err != nil {
		return c, fmt.Errorf("camera config read %s: %w", filename, err)
	}
	if err := yaml.Unmarshal(contents, &c); err != nil {
		return c, fmt.Errorf("camera config parse %s: %w", filename, err)
	}
	return c, nil
}

// New builds a camera from its config. The datum is needed by the nadir
// model to set up its tangent plane.
func New(c Config, datum dem.Datum) (SunViewer, error) {
	if c.Sun == nil {
		return nil, fmt.Errorf("%w: no sun position in config or positions file", ErrCapability)
	}
	sun := emath.Vec3(*c.Sun)

	switch c.Type {
	case "pinhole":
		return NewPinhole(emath.Vec3(c.Position), emath.Vec3(c.Target), emath.Vec3(c.Up),
			c.FocalPx, c.CenterPx[0], c.CenterPx[1], sun)
	case "nadir":
		return NewNadir(datum, c.LonLat[0], c.LonLat[1], c.Altitude,
			c.PixelsPerUnit, c.CenterPx[0], c.CenterPx[1], sun), nil
	default:
		return nil, fmt.Errorf("%w: unknown camera type %q", ErrCapability, c.Type)
	}
}
