package main

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"text/template"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
)

var indexTemplate = template.Must(template.ParseFiles("./tmpl/index.html"))

func queryData(fluxquery string) (*api.QueryTableResult, error) {
	client := influxdb2.NewClient(cfg.DBurl, cfg.DBtoken)
	defer client.Close()
	queryAPI := client.QueryAPI(cfg.DBorg)
	return queryAPI.Query(context.Background(), fluxquery)
}

// measurementFilter builds a flux filter expression matching any of the
// given measurement names
func measurementFilter(names []string) string {
	measurementParts := []string{}
	for _, m := range names {
		measurementParts = append(measurementParts,
			fmt.Sprintf("r[\"_measurement\"] == \"%v\"", m))
	}
	if len(measurementParts) == 0 {
		return "true"
	}
	return strings.Join(measurementParts, " or ")
}

// newMeasurement formats one record for the template
func newMeasurement(name string, t time.Time, field string, value interface{}) Measurement {
	m := Measurement{
		Name:  name,
		Time:  t.In(loc).Format("2006-01-02 15:04:05 MST"),
		Type:  field,
		Value: fmt.Sprintf("%.2f", value),
	}
	if field == "F" {
		m.Value = fmt.Sprintf("%.4f", value)
	}
	if unit, ok := units[m.Type]; ok {
		m.Type += ", " + unit + ":"
	}
	return m
}

// sortMeasurements orders by name, then by field
func sortMeasurements(measurements []Measurement) {
	sort.SliceStable(measurements, func(i, j int) bool {
		if measurements[i].Name == measurements[j].Name {
			return measurements[i].Type < measurements[j].Type
		}
		return measurements[i].Name < measurements[j].Name
	})
}

// method to fill template with most recent data
func serveData(w http.ResponseWriter, r *http.Request) {
	log.Info().Msgf("handler called from %v", r.RemoteAddr)

	measurements := getRecentData()
	data := PageData{
		Data:    measurements,
		Updated: time.Now().Format(time.RFC3339),
	}

	err := indexTemplate.Execute(w, data)
	if err != nil {
		log.Error().Err(err).Msg("")
	}
}

// method to obtain most recent data from database
func getRecentData() []Measurement {
	var measurements = []Measurement{}

	result, err := queryData(fmt.Sprintf(
		`from(bucket: "%v")
  |> range(start: -1h)
  |> filter(fn: (r) => %v)
  |> tail(n: 1)`,
		cfg.DBbucket, measurementFilter(cfg.Measurements)))

	if err != nil {
		log.Error().Err(err).Msg("")
		return measurements
	}

	for result.Next() {
		rec := result.Record()
		measurements = append(measurements,
			newMeasurement(rec.Measurement(), rec.Time(), rec.Field(), rec.Value()))
	}
	if result.Err() != nil {
		log.Error().Msgf("Query error: %s\n", result.Err().Error())
	}

	sortMeasurements(measurements)
	return measurements
}
