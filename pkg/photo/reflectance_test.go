package photo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lunokhod/sfsdem/pkg/emath"
)

func TestNoneModeIsConstant(t *testing.T) {
	refl, phase := Compute(emath.Vec3{0, 0, 1}, emath.Vec3{}, ModelParams{}, GlobalParams{Mode: None})
	assert.Equal(t, 1.0, refl)
	assert.Equal(t, 0.0, phase)
}

func TestLambertIsCosineLaw(t *testing.T) {
	normals := []emath.Vec3{
		{0, 0, 1},
		{1, 0, 0},
		emath.Vec3{1, 1, 1}.Normalize(),
		emath.Vec3{-0.3, 0.2, 0.9}.Normalize(),
	}
	mp := ModelParams{SunPosition: emath.Vec3{1e9, 2e8, 5e8}}
	xyz := emath.Vec3{1737400, 0, 0}
	gp := GlobalParams{Mode: Lambert}

	for _, n := range normals {
		refl, _ := Compute(n, xyz, mp, gp)
		want := mp.SunPosition.Sub(xyz).Normalize().Dot(n)
		assert.Equal(t, want, refl)
	}
}

func TestLambertIsUnclamped(t *testing.T) {
	// Sun behind the surface: the Lambert law goes negative, on purpose.
	mp := ModelParams{SunPosition: emath.Vec3{0, 0, -1e9}}
	refl, _ := Compute(emath.Vec3{0, 0, 1}, emath.Vec3{}, mp, GlobalParams{Mode: Lambert})
	assert.Less(t, refl, 0.0)
}

func TestLunarLambertLowSunSuppressed(t *testing.T) {
	// Sun elevation cosine just under the 0.3 threshold.
	n := emath.Vec3{0, 0, 1}
	sun := emath.Vec3{math.Sqrt(1 - 0.29*0.29), 0, 0.29}.Scale(1e9)

	for _, view := range []emath.Vec3{{0, 0, 1e6}, {1e6, 0, 1e6}, {0, 1e6, 2e5}} {
		mp := ModelParams{SunPosition: sun, CameraPosition: view}
		for _, gp := range []GlobalParams{
			DefaultGlobalParams(),
			{Mode: LunarLambert, PhaseCoeffC1: 0, PhaseCoeffC2: 100},
		} {
			refl, _ := Compute(n, emath.Vec3{}, mp, gp)
			assert.Equal(t, 0.0, refl)
		}
	}
}

func TestLunarLambertNeverNegative(t *testing.T) {
	n := emath.Vec3{0, 0, 1}
	gp := DefaultGlobalParams()

	// Sweep sun and viewer elevations, including viewers below the horizon
	// (emission angle past 90 degrees).
	for sunEl := 0.0; sunEl <= 90; sunEl += 7.5 {
		for viewEl := -90.0; viewEl <= 90; viewEl += 7.5 {
			se, ve := sunEl*math.Pi/180, viewEl*math.Pi/180
			mp := ModelParams{
				SunPosition:    emath.Vec3{math.Cos(se), 0, math.Sin(se)}.Scale(1e9),
				CameraPosition: emath.Vec3{-math.Cos(ve), 0, math.Sin(ve)}.Scale(1e6),
			}
			refl, _ := Compute(n, emath.Vec3{}, mp, gp)
			assert.GreaterOrEqual(t, refl, 0.0, "sunEl %v viewEl %v", sunEl, viewEl)
		}
	}
}

func TestLunarLambertOverheadGeometry(t *testing.T) {
	// Sun and viewer both straight overhead: mu0 = mu = 1, alpha = 0, so
	// the McEwen factor is 1, the base reflectance is 1, and the phase
	// correction multiplies by exp(0) + C2.
	n := emath.Vec3{0, 0, 1}
	mp := ModelParams{
		SunPosition:    emath.Vec3{0, 0, 1.5e11},
		CameraPosition: emath.Vec3{0, 0, 2e6},
	}
	gp := DefaultGlobalParams()

	refl, phase := Compute(n, emath.Vec3{}, mp, gp)
	assert.InDelta(t, 1.0+gp.PhaseCoeffC2, refl, 1e-12)
	assert.InDelta(t, 0.0, phase, 1e-9)
}

func TestLunarLambertPhaseAngle(t *testing.T) {
	// Sun overhead, viewer 60 degrees off: phase angle is pi/3.
	n := emath.Vec3{0, 0, 1}
	ve := 30.0 * math.Pi / 180
	mp := ModelParams{
		SunPosition:    emath.Vec3{0, 0, 1.5e11},
		CameraPosition: emath.Vec3{math.Cos(ve), 0, math.Sin(ve)}.Scale(2e6),
	}

	_, phase := Compute(n, emath.Vec3{}, mp, DefaultGlobalParams())
	assert.InDelta(t, math.Pi/3, phase, 1e-9)
}

func TestNonUnitNormalPanics(t *testing.T) {
	mp := ModelParams{SunPosition: emath.Vec3{0, 0, 1e9}, CameraPosition: emath.Vec3{0, 0, 1e6}}

	for _, mode := range []Mode{Lambert, LunarLambert} {
		require.Panics(t, func() {
			Compute(emath.Vec3{0, 0, 1.1}, emath.Vec3{}, mp, GlobalParams{Mode: mode})
		})
	}

	// Within the 1e-4 tolerance is fine.
	require.NotPanics(t, func() {
		Compute(emath.Vec3{0, 0, 1.00000001}, emath.Vec3{}, mp, GlobalParams{Mode: Lambert})
	})
}

func TestParseMode(t *testing.T) {
	for s, want := range map[string]Mode{
		"none": None, "lambert": Lambert, "lunar-lambert": LunarLambert,
	} {
		got, err := ParseMode(s)
		require.NoError(t, err)
		assert.Equal(t, want, got)
		assert.Equal(t, s, got.String())
	}

	_, err := ParseMode("hapke")
	assert.Error(t, err)
}
