package main

// sfs refines a DEM so that the predicted photometric reflectance of the
// terrain matches observed image brightness. Usage:
//
//   sfs -i dem.asc -o run/out -n 100 image.png ...
//
// Each radiance image needs a camera sidecar (<image>.yaml, or -camera for
// a single image), optionally overridden by auxiliary position files.

import(
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/lunokhod/sfsdem/pkg/camera"
	"github.com/lunokhod/sfsdem/pkg/dem"
	"github.com/lunokhod/sfsdem/pkg/emath"
	"github.com/lunokhod/sfsdem/pkg/lsq"
	"github.com/lunokhod/sfsdem/pkg/photo"
	"github.com/lunokhod/sfsdem/pkg/sfs"
)

var(
	fInputDEM         string
	fOutPrefix        string
	fMaxIterations    int
	fSmoothnessWeight float64
	fThreads          int
	fCameraConfig     string
	fSunPositions     string
	fCraftPositions   string
	fReflectance      string
	fPhaseC1          float64
	fPhaseC2          float64
	fDatum            string
	fPreviews         bool
)

func init() {
	flag.StringVar(&fInputDEM, "i", "", "input DEM to refine (.asc)")
	flag.StringVar(&fOutPrefix, "o", "", "prefix for output filenames")
	flag.IntVar(&fMaxIterations, "n", 100, "maximum number of iterations")
	flag.Float64Var(&fSmoothnessWeight, "smoothness-weight", 1.0, "larger values give a smoother solution")
	flag.IntVar(&fThreads, "threads", 1, "number of evaluation threads")
	flag.StringVar(&fCameraConfig, "camera", "", "camera sidecar YAML (default <image>.yaml per image)")
	flag.StringVar(&fSunPositions, "sun-positions", "", "file of `image x y z` sun position records")
	flag.StringVar(&fCraftPositions, "spacecraft-positions", "", "file of `image x y z` spacecraft position records")
	flag.StringVar(&fReflectance, "reflectance", "lunar-lambert", "reflectance law: none, lambert, lunar-lambert")
	flag.Float64Var(&fPhaseC1, "phase-c1", 1.383488, "phase correction coefficient C1")
	flag.Float64Var(&fPhaseC2, "phase-c2", 0.501149, "phase correction coefficient C2")
	flag.StringVar(&fDatum, "datum", "moon", "datum for the DEM: moon or earth")
	flag.BoolVar(&fPreviews, "previews", false, "also write false-color PNG previews of each artifact")
	flag.Parse()

	log.Printf("starting\n")
}

func main() {
	images := flag.Args()

	if fInputDEM == "" {
		log.Fatalf("missing required option -i (input DEM)")
	}
	if fOutPrefix == "" {
		log.Fatalf("missing required option -o (output prefix)")
	}
	if fMaxIterations < 0 {
		log.Fatalf("option -n: iteration count must be non-negative, got %d", fMaxIterations)
	}
	if len(images) == 0 {
		log.Fatalf("missing input images")
	}

	var datum dem.Datum
	switch fDatum {
	case "moon":
		datum = dem.Moon
	case "earth":
		datum = dem.WGS84
	default:
		log.Fatalf("option -datum: no datum named '%s'", fDatum)
	}

	mode, err := photo.ParseMode(fReflectance)
	if err != nil {
		log.Fatalf("option -reflectance: %v", err)
	}
	global := photo.GlobalParams{Mode: mode, PhaseCoeffC1: fPhaseC1, PhaseCoeffC2: fPhaseC2}

	m, err := dem.ReadASC(fInputDEM, datum)
	if err != nil {
		log.Fatalf("input DEM: %v", err)
	}
	log.Printf("loaded DEM %s: %s", fInputDEM, m.Stats())
	if m.HasNoData {
		log.Printf("DEM no-data value: %g", m.NoData)
	}

	sunOverrides := readPositions(fSunPositions)
	craftOverrides := readPositions(fCraftPositions)

	var interps []*sfs.Interp
	var cams []camera.SunViewer
	for _, img := range images {
		interp, err := sfs.LoadRadiance(img)
		if err != nil {
			log.Fatalf("radiance image: %v", err)
		}
		interps = append(interps, interp)

		cfgFile := fCameraConfig
		if cfgFile == "" || len(images) > 1 {
			cfgFile = img + ".yaml"
		}
		cfg, err := camera.LoadConfig(cfgFile)
		if err != nil {
			log.Fatalf("camera: %v", err)
		}

		key := filepath.Base(img)
		if sun, ok := sunOverrides[key]; ok {
			cfg.Sun = &[3]float64{sun[0], sun[1], sun[2]}
		}
		if pos, ok := craftOverrides[key]; ok {
			cfg.Position = [3]float64(pos)
		}

		cam, err := camera.New(cfg, datum)
		if err != nil {
			log.Fatalf("camera %s: %v", cfgFile, err)
		}
		log.Printf("sun position: %s", cam.SunPosition())
		log.Printf("camera position: %s", cam.CameraPosition())
		cams = append(cams, cam)
	}

	// One image drives the residuals; the rest are loaded and checked but
	// joint multi-image solving is out of scope.
	cx := sfs.NewContext(m, interps[0], cams[0], global, fSmoothnessWeight)
	log.Printf("grid spacing %g degrees over %dx%d cells", cx.GridSpacing, m.Cols(), m.Rows())

	if err := cx.Calibrate(); err != nil {
		log.Fatalf("calibration: %v", err)
	}
	log.Printf("brightness calibration A0 %g, A1 %g", cx.A[0], cx.A[1])

	problem := cx.BuildProblem()
	log.Printf("assembled %d residual blocks over %d parameter blocks",
		problem.NumResidualBlocks(), problem.NumParameterBlocks())

	observer := sfs.NewObserver(cx, fOutPrefix)
	observer.Previews = fPreviews

	opts := lsq.DefaultOptions()
	opts.MaxIterations = fMaxIterations
	opts.NumThreads = fThreads
	opts.Callbacks = append(opts.Callbacks, observer)

	summary := lsq.Solve(opts, problem)
	fmt.Println(summary.BriefReport())

	if summary.Status == lsq.Failed {
		os.Exit(1)
	}
}

func readPositions(filename string) map[string]emath.Vec3 {
	if filename == "" {
		return map[string]emath.Vec3{}
	}
	records, err := camera.ReadPositions(filename)
	if err != nil {
		log.Fatalf("positions: %v", err)
	}
	return records
}
