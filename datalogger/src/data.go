package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
)

const day = 24 * time.Hour

var errNoData = errors.New("sensor reply holds no data")

func check(e error) {
	if e != nil {
		log.Error().Err(e).Msg("")
	}
}

// FloatIsClose checks if two floating point numbers are equal within tolerance.
func FloatIsClose(have, want, tolerance float64) bool {
	diff := have - want
	if diff < 0 {
		diff *= -1
	}
	return diff <= tolerance
}

// DateDifferent checks if the date of time.Time "now" is greater then that of "prev"
func DateDifferent(now, prev *time.Time) bool {
	return !(now.Truncate(day).Equal(prev.Truncate(day)))
}

// PrependDate prepends the current date to a string and separates it with an underscore,
// YYYYMMDD_, from a given time.Time t
func PrependDate(t *time.Time, s string) string {
	if t.Location() == time.UTC {
		return t.Format("20060102Z07:00_") + s
	}
	return t.Format("20060102_") + s
}

// parseMessage parses the JSON reply of a sensor, stamps it with time t
// and calculates the flux quantities.
func parseMessage(recv []byte, names map[uint8]string, t time.Time) (message, error) {
	msg := message{}
	if err := json.Unmarshal(recv, &msg); err != nil {
		return msg, fmt.Errorf("could not parse string '%v': %w", string(recv), err)
	}
	msg.Timestamp = t
	if name, ok := names[msg.ID]; ok {
		msg.Name = name
	} else {
		msg.Name = "UNKNOWN"
	}
	// a sensor that is not ready replies with all zeros
	if FloatIsClose(msg.PCO2Water, 0.0, 1e-5) && FloatIsClose(msg.PCO2Atm, 0.0, 1e-5) &&
		FloatIsClose(msg.SST, 0.0, 1e-5) && FloatIsClose(msg.SSS, 0.0, 1e-5) &&
		FloatIsClose(msg.Wind, 0.0, 1e-5) {
		return msg, fmt.Errorf("'%v': %w", string(recv), errNoData)
	}
	msg.computeFlux()
	return msg, nil
}

// dataParser receives messsages from the dataCollector.
// Parses the JSON to message type, adds timestamp and flux
func dataParser(ctx context.Context, data <-chan []byte, msgOut chan<- message, sigDone chan<- struct{}) {
	names := cfg.id2Name()
	for {
		select {
		case recv := <-data:
			msg, err := parseMessage(recv, names, time.Now().UTC())
			if err != nil {
				log.Error().Err(err).Msg("invalid sensor reply")
				continue
			}
			log.Info().Msg(msg.StringShort())
			select {
			case msgOut <- msg:
			case <-ctx.Done():
			}

		case <-ctx.Done():
			log.Debug().Msg("parser closing")
			sigDone <- struct{}{}
			return
		}
	}
}

// makeLogfile creates a new csv file to log data for one day
func makeLogfile(logpath string, now *time.Time) (*os.File, error) {
	logfile := path.Join(logpath, PrependDate(now, "fluxdata.csv"))
	f, fileErr := os.OpenFile(logfile, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644)
	check(fileErr)
	if fileErr == nil {
		fi, err := os.Stat(logfile)
		check(err)
		if err == nil {
			if fi.Size() < 5 { // only write the header if the file is empty
				_, err := f.WriteString(NewMsg().CsvHeader(CSVSEP))
				check(err)
			}
		}
	}
	return f, fileErr
}

// handleCSVlog logs parsed messages to a csv table.
// Forwards the data to database logger
func handleCSVlog(ctx context.Context, logpath string,
	msgIn <-chan message, msgOut chan<- message, sigDone chan<- struct{}) {
	now := time.Now().UTC()
	f, fileErr := makeLogfile(logpath, &now)
	for {
		select {
		case recv := <-msgIn:
			log.Debug().Msgf("logging '%v'", strings.Trim(recv.StringCsv(CSVSEP), "\n"))
			// to csv
			if newNow := time.Now().UTC(); DateDifferent(&newNow, &now) {
				// date has changed, make a new logfile
				if fileErr == nil {
					f.Close() // close existing logfile only if it was created sucessfully before
				}
				now = newNow
				f, fileErr = makeLogfile(logpath, &now)
			}
			if fileErr == nil {
				n, err := f.WriteString(recv.StringCsv(CSVSEP))
				check(err)
				log.Debug().Msgf("wrote %v bytes to logfile", n)
			}
			// forward to handleDBupload
			select {
			case msgOut <- recv:
			case <-ctx.Done():
			}
		case <-ctx.Done():
			log.Debug().Msg("csv handler closing")
			if fileErr == nil {
				f.Close()
			}
			sigDone <- struct{}{}
			return
		}
	}
}

// handleDBupload sends data to the database.
// Messages are only drained if DB logging is disabled.
func handleDBupload(ctx context.Context, msgIn <-chan message, sigDone chan<- struct{}) {
	if !cfg.LogToDB {
		log.Info().Msg("DB logging disabled")
		for {
			select {
			case <-msgIn:
			case <-ctx.Done():
				log.Debug().Msg("db uploader closing")
				sigDone <- struct{}{}
				return
			}
		}
	}

	// Create a new client using an InfluxDB server base URL and an authentication token
	// and set batch size to 20
	client := influxdb2.NewClientWithOptions(cfg.DBurl, cfg.DBtoken,
		influxdb2.DefaultOptions().SetBatchSize(20))
	// Get non-blocking write client
	writeAPI := client.WriteAPI(cfg.DBorg, cfg.DBbucket)
	errorsCh := writeAPI.Errors()
	for {
		select {
		case recv := <-msgIn:
			log.Debug().Msgf("DB logger received msg %v", recv.StringShort())
			writeAPI.WritePoint(recv.ToInfluxPoint())
		case err := <-errorsCh:
			log.Error().Err(err).Msg("DB write failed")
		case <-ctx.Done():
			log.Debug().Msg("db uploader closing")
			writeAPI.Flush()
			client.Close()
			sigDone <- struct{}{}
			return
		}
	}
}
