package main

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"odisco_co2flux/co2flux"
)

var fluxParams = []string{"pco2w", "pco2a", "sst", "sss", "u"}

// parseFluxParams reads the calculator inputs from the query string,
// in the order of fluxParams
func parseFluxParams(r *http.Request) ([]float64, error) {
	q := r.URL.Query()
	vals := make([]float64, len(fluxParams))
	for i, name := range fluxParams {
		s := q.Get(name)
		if s == "" {
			return nil, fmt.Errorf("missing parameter '%v'", name)
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("parameter '%v': %w", name, err)
		}
		vals[i] = v
	}
	return vals, nil
}

// handleFluxAPI evaluates the flux for the given inputs and replies JSON
func handleFluxAPI(w http.ResponseWriter, r *http.Request) {
	v, err := parseFluxParams(r)
	if err != nil {
		log.Debug().Err(err).Msg("bad flux request")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	f, dp, k := co2flux.Flux(v[0], v[1], v[2], v[3], v[4])
	for _, x := range []float64{f, dp, k} {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			http.Error(w, "result is not a finite number", http.StatusUnprocessableEntity)
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(fluxResponse{Flux: f, DpCO2: dp, K: k}); err != nil {
		log.Error().Err(err).Msg("")
	}
}
