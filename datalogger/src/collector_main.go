package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"os/user"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

var log = zerolog.New(nil)
var logFileName = fmt.Sprintf("fluxlogger_%v.log", time.Now().UTC().Format("20060102T150405Z"))

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

const INTERVAL = time.Duration(time.Minute)
const CHECKINTERVAL = time.Duration(time.Second)
const CSVSEP = ";"

var cfg = NewCfg()

// makeSources resolves the configured sensor addresses
func makeSources(cfgs []SourceConfig) []source {
	var sources []source
	for _, src := range cfgs {
		addr, err := net.ResolveUDPAddr("udp", src.Address)
		if err != nil {
			log.Error().Err(err).Msgf("cannot resolve address of %v", src.Name)
		}
		s := source{name: src.Name, id: src.ID, address: src.Address,
			UDPaddress: addr, lastContact: time.Now().Add(-INTERVAL)}
		sources = append(sources, s)
	}
	return sources
}

// expandHome replaces a leading ~/ by the home directory of the current user
func expandHome(p string) string {
	p = path.Clean(p)
	if strings.HasPrefix(p, "~/") {
		usr, err := user.Current()
		if err != nil {
			return p
		}
		p = filepath.Join(usr.HomeDir, p[2:])
	}
	return p
}

func main() {
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

	logpath := expandHome(cfg.DataSavePath)
	if stat, err := os.Stat(logpath); err != nil || !stat.IsDir() {
		log.Error().Msgf("invalid path '%v'", logpath)
		os.Exit(64)
	}

	log.Info().Msgf("starting flux data collector, logging to '%v'", logpath)

	// declare sensor data sources
	sources := makeSources(cfg.Sources)

	// start data collector and handlers
	var data = make(chan []byte)
	var msgParserToCsv = make(chan message)
	var msgCsvToDb = make(chan message)
	var sigDone = make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())

	go dataCollector(ctx, sources, data, sigDone)
	go dataParser(ctx, data, msgParserToCsv, sigDone)
	go handleCSVlog(ctx, logpath, msgParserToCsv, msgCsvToDb, sigDone)
	go handleDBupload(ctx, msgCsvToDb, sigDone)

	fmt.Println("press any key to exit...")
	fmt.Scanln()

	// stop goroutines via context and make sure they're closed before main stops
	cancel()
	<-sigDone // data collector
	<-sigDone // msg parser
	<-sigDone // csv logger
	<-sigDone // db uploader

	log.Info().Msg("flux data collector graceful shutdown")
}
