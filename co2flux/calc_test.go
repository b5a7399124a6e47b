package co2flux

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

const float64EqualityThreshold = 1e-6

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) <= float64EqualityThreshold
}

func TestSchmidt(t *testing.T) {
	want := 2116.8 + (-136.25 * 20) + (4.7353 * 400) + (-0.092307 * 8000) + (0.0007555 * 160000)
	assert.InDelta(t, want, Schmidt(20), 1e-9)
	assert.True(t, almostEqual(668.344, Schmidt(20)))
	assert.True(t, almostEqual(2116.8, Schmidt(0)))
	assert.True(t, almostEqual(2408.991744, Schmidt(-2)))
	assert.True(t, almostEqual(269.712, Schmidt(40)))
}

func TestSchmidtDecreasing(t *testing.T) {
	prev := Schmidt(-2)
	for sst := -1.9; sst <= 40; sst += 0.1 {
		sc := Schmidt(sst)
		assert.Less(t, sc, prev, "Schmidt(%.1f)", sst)
		prev = sc
	}
}

func TestSchmidtExtrapolates(t *testing.T) {
	// outside -2..40 degr C the polynomial is evaluated as is
	sst := 50.
	want := 2116.8 - 136.25*sst + 4.7353*sst*sst - 0.092307*sst*sst*sst + 0.0007555*sst*sst*sst*sst
	assert.InDelta(t, want, Schmidt(sst), 1e-6)
	assert.False(t, math.IsNaN(Schmidt(-10)))
}

func TestSolubility(t *testing.T) {
	assert.True(t, almostEqual(0.029058930310620932, Solubility(25, 35)))
	assert.True(t, almostEqual(0.0840884523626118, Solubility(-2, 0)))
	assert.True(t, almostEqual(0.02043926724911568, Solubility(40, 40)))

	// salt decreases solubility
	assert.Less(t, Solubility(15, 35), Solubility(15, 0))
}

func TestSolubilityPositive(t *testing.T) {
	for sst := -2.; sst <= 40; sst += 0.5 {
		for _, sss := range []float64{0, 5, 20, 35, 40} {
			assert.Greater(t, Solubility(sst, sss), 0., "Solubility(%.1f, %.0f)", sst, sss)
		}
	}
}

func TestSolubilityBelowAbsoluteZero(t *testing.T) {
	assert.True(t, math.IsNaN(Solubility(-300, 35)))
}

func TestFlux(t *testing.T) {
	f, dp, k := Flux(400, 380, 25, 35, 5)
	assert.Equal(t, 20., dp)
	assert.InDelta(t, 7.049572011645711, k, 1e-9)
	assert.InDelta(t, 0.9832945046693593, f, 1e-9)

	// same inputs, same outputs
	for i := 0; i < 10; i++ {
		f2, dp2, k2 := Flux(400, 380, 25, 35, 5)
		assert.Equal(t, f, f2)
		assert.Equal(t, dp, dp2)
		assert.Equal(t, k, k2)
	}
}

func TestFluxZeroDifference(t *testing.T) {
	for _, sst := range []float64{-2, 0, 12.5, 25, 40} {
		for _, u := range []float64{0, 3, 12} {
			f, dp, _ := Flux(385.2, 385.2, sst, 34, u)
			assert.Zero(t, dp)
			assert.Zero(t, f)
		}
	}
}

func TestFluxSign(t *testing.T) {
	cases := []struct {
		water, atm float64
	}{
		{400, 380},
		{350, 410},
		{280.5, 280},
		{1000, 0},
		{0, 420},
	}
	for _, c := range cases {
		f, dp, k := Flux(c.water, c.atm, 18, 35, 7)
		assert.Greater(t, k, 0.)
		assert.Equal(t, math.Signbit(dp), math.Signbit(f), "water %v atm %v", c.water, c.atm)
	}
}

func TestTransferVelocityWindSquared(t *testing.T) {
	for _, sst := range []float64{-2, 10, 25, 40} {
		for _, u := range []float64{0.5, 3, 7.2, 15} {
			_, _, k1 := Flux(400, 380, sst, 35, u)
			_, _, k2 := Flux(400, 380, sst, 35, 2*u)
			assert.InEpsilon(t, 4*k1, k2, 1e-12)
		}
	}
}

func TestFluxNoValidation(t *testing.T) {
	// negative wind speed enters squared, negative salinity is evaluated as given
	_, _, kNeg := Flux(400, 380, 20, 35, -5)
	_, _, kPos := Flux(400, 380, 20, 35, 5)
	assert.Equal(t, kPos, kNeg)

	f, _, _ := Flux(400, 380, 20, -10, 5)
	assert.False(t, math.IsNaN(f))

	f, dp, _ := Flux(400, 380, -300, 35, 5)
	assert.Equal(t, 20., dp)
	assert.True(t, math.IsNaN(f))
}

func TestCompute(t *testing.T) {
	r := Compute(Measurement{PCO2Water: 400, PCO2Atm: 380, SST: 25, SSS: 35, Wind: 5})
	f, dp, k := Flux(400, 380, 25, 35, 5)
	assert.Equal(t, Result{Flux: f, DeltaPCO2: dp, TransferVelocity: k}, r)
}
