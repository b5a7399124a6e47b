package co2flux

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

const badLength = "co2flux: slice lengths do not match"

// prepare returns dst if it has length n, a new slice if dst is nil
// and panics otherwise.
func prepare(dst []float64, n int) []float64 {
	if dst == nil {
		return make([]float64, n)
	}
	if len(dst) != n {
		panic(badLength)
	}
	return dst
}

// SchmidtSlice stores Schmidt(sst[i]) in dst[i] and returns dst.
// A nil dst is allocated. dst may alias sst.
func SchmidtSlice(dst, sst []float64) []float64 {
	dst = prepare(dst, len(sst))
	for i, t := range sst {
		dst[i] = Schmidt(t)
	}
	return dst
}

// SolubilitySlice stores Solubility(sst[i], sss[i]) in dst[i] and returns dst.
// A nil dst is allocated. dst may alias sst or sss.
func SolubilitySlice(dst, sst, sss []float64) []float64 {
	if len(sss) != len(sst) {
		panic(badLength)
	}
	dst = prepare(dst, len(sst))
	for i := range sst {
		dst[i] = Solubility(sst[i], sss[i])
	}
	return dst
}

// FluxSlice is the element-wise form of Flux. All inputs must have the
// same length; the outputs are newly allocated and the inputs are not modified.
// Element i of each output is identical to Flux applied to element i of the inputs.
func FluxSlice(pco2Water, pco2Atm, sst, sss, u []float64) (fco2, dpco2, kco2 []float64) {
	n := len(sst)
	if len(pco2Water) != n || len(pco2Atm) != n || len(sss) != n || len(u) != n {
		panic(badLength)
	}

	kco2 = floats.MulTo(make([]float64, n), u, u)
	floats.Scale(kw, kco2)
	sc := SchmidtSlice(nil, sst)
	for i := range kco2 {
		kco2[i] *= math.Pow(sc[i]/scRef, -0.5)
	}

	dpco2 = floats.SubTo(make([]float64, n), pco2Water, pco2Atm)
	a := SolubilitySlice(sc, sst, sss) // reuse sc

	fco2 = make([]float64, n)
	copy(fco2, kco2)
	floats.Scale(fluxFactor, fco2)
	floats.Mul(fco2, a)
	floats.Mul(fco2, dpco2)
	return fco2, dpco2, kco2
}
