// Package co2flux calculates air-sea CO2 fluxes from seawater and atmospheric
// pCO2, sea-surface temperature, sea-surface salinity and wind speed.
package co2flux

import "math"

const celciusZero = 273.15 // K
const scRef = 660.         // Schmidt number of CO2 in seawater at 20 degr C

const kw = 0.251        // Wanninkhof 2014 gas transfer coefficient
const fluxFactor = 0.24 // to mmol/m²/day

// Schmidt calculates the Schmidt number for CO2 in seawater.
// SST given in degr Celcius. Valid for salinity 35 and -2 to 40 degr C;
// outside that range the polynomial is extrapolated.
// based on Wanninkhof 2014; DOI: https://doi.org/10.4319/lom.2014.12.351
func Schmidt(sst float64) float64 {
	const (
		A = 2116.8
		B = -136.25
		C = 4.7353
		D = -0.092307
		E = 0.0007555
	)
	return A + (B * sst) + (C * math.Pow(sst, 2)) + (D * math.Pow(sst, 3)) + (E * math.Pow(sst, 4))
}

// Solubility calculates the CO2 solubility Ko in mol/(kg*atm).
// SST given in degr Celcius, SSS in practical salinity units.
// based on Weiss 1974; DOI: https://doi.org/10.1016/0304-4203(74)90015-2
func Solubility(sst, sss float64) float64 {
	var A = [3]float64{-58.0931, 90.5069, 22.2940}
	var B = [3]float64{0.027766, -0.025888, 0.0050578}

	tk := sst + celciusZero
	lnKo := A[0] + (A[1] * (100. / tk)) + (A[2] * math.Log(tk/100.)) +
		sss*(B[0]+(B[1]*(tk/100.))+(B[2]*math.Pow(tk/100., 2)))
	return math.Exp(lnKo)
}

// Flux calculates the air-sea CO2 flux in mmol/m²/day, the pCO2 difference
// water minus air in µatm and the gas transfer velocity in m/day.
// pCO2 in µatm, SST in degr Celcius, SSS in practical salinity units, u in m/s.
// A positive flux means outgassing from ocean to atmosphere.
func Flux(pco2Water, pco2Atm, sst, sss, u float64) (fco2, dpco2, kco2 float64) {
	sc := Schmidt(sst)
	kco2 = kw * (u * u) * math.Pow(sc/scRef, -0.5)
	dpco2 = pco2Water - pco2Atm
	a := Solubility(sst, sss)
	fco2 = fluxFactor * kco2 * a * dpco2
	return fco2, dpco2, kco2
}

// Measurement holds the inputs of one flux calculation.
type Measurement struct {
	PCO2Water float64 // µatm
	PCO2Atm   float64 // µatm
	SST       float64 // degr C
	SSS       float64
	Wind      float64 // m/s
}

// Result holds the outputs of one flux calculation.
type Result struct {
	Flux             float64 // mmol/m²/day
	DeltaPCO2        float64 // µatm
	TransferVelocity float64 // m/day
}

// Compute is Flux for a Measurement.
func Compute(m Measurement) Result {
	f, dp, k := Flux(m.PCO2Water, m.PCO2Atm, m.SST, m.SSS, m.Wind)
	return Result{Flux: f, DeltaPCO2: dp, TransferVelocity: k}
}
