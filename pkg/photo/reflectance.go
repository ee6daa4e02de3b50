package photo

// Reflectance laws for planetary photometry: given a surface point, its
// unit normal, and the sun/viewer geometry, predict how bright the surface
// should look. The lunar-Lambert law follows McEwen's formulation with an
// empirical phase correction.

import(
	"fmt"
	"math"

	"github.com/lunokhod/sfsdem/pkg/emath"
)

type Mode int

const(
	None Mode = iota
	Lambert
	LunarLambert
)

func (m Mode)String() string {
	switch m {
	case None:         return "none"
	case Lambert:      return "lambert"
	case LunarLambert: return "lunar-lambert"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

func ParseMode(s string) (Mode, error) {
	switch s {
	case "none":          return None, nil
	case "lambert":       return Lambert, nil
	case "lunar-lambert": return LunarLambert, nil
	}
	return None, fmt.Errorf("no reflectance mode named '%s'", s)
}

// GlobalParams select the reflectance law and its empirical phase
// correction coefficients. Immutable once the solve starts.
type GlobalParams struct {
	Mode         Mode
	PhaseCoeffC1 float64
	PhaseCoeffC2 float64
}

// DefaultGlobalParams returns lunar-Lambert with phase coefficients fitted
// against LROC NAC imagery.
func DefaultGlobalParams() GlobalParams {
	return GlobalParams{
		Mode:         LunarLambert,
		PhaseCoeffC1: 1.383488,
		PhaseCoeffC2: 0.501149,
	}
}

// ModelParams hold the per-image illumination/viewing geometry, set once
// from camera telemetry before solving.
type ModelParams struct {
	SunPosition    emath.Vec3 // planet-centered cartesian, meters
	CameraPosition emath.Vec3
}

// McEwen's limb-darkening polynomial coefficients (phase angle in degrees).
const(
	mcEwenA = -0.019
	mcEwenB = 0.000242
	mcEwenC = -0.00000146
)

// Below this sun-elevation cosine the photometric inversion is unreliable,
// so the model reports zero rather than amplify noise.
const minMu0 = 0.3

// Compute returns the predicted reflectance at surface point xyz with unit
// surface normal n, plus the phase angle (radians) between the sun and
// viewer directions as seen from xyz. The normal must be unit length to
// within 1e-4; anything else is a caller bug and panics.
func Compute(n, xyz emath.Vec3, mp ModelParams, gp GlobalParams) (refl, phase float64) {
	switch gp.Mode {
	case LunarLambert:
		mustBeUnit(n)
		return lunarLambert(mp.SunPosition, mp.CameraPosition, xyz, n,
			gp.PhaseCoeffC1, gp.PhaseCoeffC2)
	case Lambert:
		mustBeUnit(n)
		return lambert(mp.SunPosition, xyz, n), 0
	default:
		return 1, 0
	}
}

// lambert is the plain cosine law: dot of the sun direction and the
// normal, deliberately unclamped.
func lambert(sunPos, xyz, n emath.Vec3) float64 {
	return sunPos.Sub(xyz).Normalize().Dot(n)
}

func lunarLambert(sunPos, viewPos, xyz, n emath.Vec3, c1, c2 float64) (float64, float64) {
	sunDir := sunPos.Sub(xyz).Normalize()
	mu0 := sunDir.Dot(n)
	if mu0 < minMu0 {
		// Sun too low; reflectance would be near zero and the inversion
		// noise-dominated.
		return 0, 0
	}

	viewDir := viewPos.Sub(xyz).Normalize()
	mu := viewDir.Dot(n)

	cosAlpha := emath.Clip(sunDir.Dot(viewDir), -1, 1)
	alpha := math.Acos(cosAlpha)
	degAlpha := alpha * 180.0 / math.Pi

	l := 1.0 + mcEwenA*degAlpha + mcEwenB*degAlpha*degAlpha + mcEwenC*degAlpha*degAlpha*degAlpha

	if mu < 0 { // emission angle past 90 degrees
		mu = 0
	}
	if mu0+mu == 0 {
		return 0, alpha
	}

	refl := 2*l*mu0/(mu0+mu) + (1-l)*mu0
	if refl <= 0 {
		return 0, alpha
	}

	// Empirical brightening compensation for terrain that looks too bright
	// when the sun is nearly behind the camera, as seen from the surface.
	refl *= math.Exp(-c1*alpha) + c2

	return refl, alpha
}

func mustBeUnit(n emath.Vec3) {
	if math.Abs(n.Dot(n)-1.0) > 1.0e-4 {
		panic(fmt.Sprintf("photo: reflectance law fed a non-unit normal %s", n))
	}
}
