package main

import (
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// fluxSeries holds the flux history of one buoy
type fluxSeries struct {
	Name   string
	Times  []time.Time
	Values []float64
}

// getFluxHistory obtains flux time series per measurement from database
func getFluxHistory() ([]fluxSeries, error) {
	result, err := queryData(fmt.Sprintf(
		`from(bucket: "%v")
  |> range(start: %v)
  |> filter(fn: (r) => %v)
  |> filter(fn: (r) => r["_field"] == "F")
  |> aggregateWindow(every: 10m, fn: mean, createEmpty: false)`,
		cfg.DBbucket, cfg.PlotRange, measurementFilter(cfg.Measurements)))
	if err != nil {
		return nil, err
	}

	byName := map[string]*fluxSeries{}
	for result.Next() {
		rec := result.Record()
		v, ok := rec.Value().(float64)
		if !ok {
			continue
		}
		s, ok := byName[rec.Measurement()]
		if !ok {
			s = &fluxSeries{Name: rec.Measurement()}
			byName[rec.Measurement()] = s
		}
		s.Times = append(s.Times, rec.Time())
		s.Values = append(s.Values, v)
	}
	if result.Err() != nil {
		return nil, result.Err()
	}

	series := make([]fluxSeries, 0, len(byName))
	for _, s := range byName {
		series = append(series, *s)
	}
	sort.Slice(series, func(i, j int) bool { return series[i].Name < series[j].Name })
	return series, nil
}

// renderFluxChart writes a html line chart of the given series to w
func renderFluxChart(w io.Writer, series []fluxSeries) error {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "CO2 flux"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Air-sea CO2 flux",
			Subtitle: "mmol/m²/day, positive: outgassing",
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: true, Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Type: "time"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "F"}),
	)
	for _, s := range series {
		data := make([]opts.LineData, len(s.Values))
		for i := range s.Values {
			data[i] = opts.LineData{Value: []interface{}{s.Times[i].In(loc).Format(time.RFC3339), s.Values[i]}}
		}
		line.AddSeries(s.Name, data)
	}
	return line.Render(w)
}

// plotserver serves the flux history chart
func plotserver(w http.ResponseWriter, r *http.Request) {
	log.Info().Msgf("plot handler called from %v", r.RemoteAddr)

	series, err := getFluxHistory()
	if err != nil {
		log.Error().Err(err).Msg("flux history query failed")
		http.Error(w, "could not query flux history", http.StatusBadGateway)
		return
	}
	if err := renderFluxChart(w, series); err != nil {
		log.Error().Err(err).Msg("")
	}
}
