package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

var log = zerolog.New(nil)
var logFileName = fmt.Sprintf("webserver_%v.log", time.Now().UTC().Format("20060102T150405Z"))

func init() {
	dst, err := os.Getwd()
	if err != nil {
		panic(err)
	}

	lumberjackLogger := &lumberjack.Logger{
		Filename:   filepath.Join(dst, "log", logFileName),
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     3,
	}

	// log to console AND file.
	var writers []io.Writer
	writers = append(writers, zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "15:04:05.000", // local time
	})
	writers = append(writers, lumberjackLogger)
	mw := io.MultiWriter(writers...)
	log = zerolog.New(mw).With().Caller().Timestamp().Logger()

	// log UTC, not local time
	zerolog.TimeFieldFormat = "2006-01-02T15:04:05.000Z"
	zerolog.TimestampFunc = func() time.Time { return time.Now().UTC() }
	zerolog.CallerMarshalFunc = func(pc uintptr, file string, line int) string {
		return filepath.Base(file) + ":" + strconv.Itoa(line)
	}
}

var cfg = NewCfg()
var loc = loadLocation("Africa/Douala")
var units = map[string]string{
	"pCO2w": "µatm",
	"pCO2a": "µatm",
	"SST":   "°C",
	"SSS":   "psu",
	"u":     "m/s",
	"F":     "mmol/m²/day",
	"dpCO2": "µatm",
	"K":     "m/day",
}

// loadLocation falls back to UTC if the tz database is missing
func loadLocation(name string) *time.Location {
	l, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return l
}

func newRouter() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/", serveData).Methods("GET")
	log.Debug().Msg("created server for recent data")

	r.HandleFunc("/plots/flux", plotserver).Methods("GET")
	log.Debug().Msg("created server for flux plot")

	r.HandleFunc("/api/flux", handleFluxAPI).Methods("GET")
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}).Methods("GET")

	// css directory
	fs := http.FileServer(http.Dir("./assets"))
	r.PathPrefix("/assets/").Handler(http.StripPrefix("/assets", fs))
	return r
}

func main() {
	// capture control-C
	go func() {
		sigchan := make(chan os.Signal, 1)
		signal.Notify(sigchan, os.Interrupt)
		<-sigchan
		log.Info().Msg("program terminated by os.Interrupt")
		os.Exit(0)
	}()

	// can supply path to config via cmd line arg
	var cfgPath string
	args := os.Args
	if len(args) > 1 {
		cfgPath = args[1]
	}

	err := cfg.Load(cfgPath)
	if err != nil {
		log.Error().Err(err).Msg("could not load config")
		os.Exit(1)
	}

	if strings.ToUpper(cfg.LogLevel) == "INFO" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	r := newRouter()

	log.Info().Msgf("listen & serve at localhost%v", cfg.ServePort)

	err = http.ListenAndServe(cfg.ServePort, r)
	if err != nil {
		log.Error().Err(err).Msg("")
	}
}
