package main

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"odisco_co2flux/co2flux"
)

const buoyReply = `{"ID":1,"pCO2w":400,"pCO2a":380,"SST":25,"SSS":35,"u":5}`

func TestFloatIsClose(t *testing.T) {
	assert.True(t, FloatIsClose(1.000001, 1, 1e-5))
	assert.True(t, FloatIsClose(1, 1.000001, 1e-5))
	assert.False(t, FloatIsClose(1.1, 1, 1e-5))
}

func TestDateDifferent(t *testing.T) {
	a := time.Date(2024, 12, 30, 23, 59, 0, 0, time.UTC)
	b := time.Date(2024, 12, 31, 0, 1, 0, 0, time.UTC)
	c := time.Date(2024, 12, 31, 17, 0, 0, 0, time.UTC)
	assert.True(t, DateDifferent(&b, &a))
	assert.False(t, DateDifferent(&c, &b))
}

func TestPrependDate(t *testing.T) {
	tm := time.Date(2024, 12, 30, 12, 33, 21, 0, time.UTC)
	assert.Equal(t, "20241230Z_fluxdata.csv", PrependDate(&tm, "fluxdata.csv"))
	loc := time.FixedZone("WAT", 3600)
	tm = tm.In(loc)
	assert.Equal(t, "20241230_fluxdata.csv", PrependDate(&tm, "fluxdata.csv"))
}

func TestParseMessage(t *testing.T) {
	now := time.Date(2024, 12, 30, 12, 0, 0, 0, time.UTC)
	names := map[uint8]string{1: "Douala"}

	msg, err := parseMessage([]byte(buoyReply), names, now)
	require.NoError(t, err)
	assert.Equal(t, "Douala", msg.Name)
	assert.Equal(t, now, msg.Timestamp)
	assert.Equal(t, 400., msg.PCO2Water)
	assert.Equal(t, 5., msg.Wind)

	f, dp, k := co2flux.Flux(400, 380, 25, 35, 5)
	assert.Equal(t, f, msg.Flux)
	assert.Equal(t, dp, msg.DpCO2)
	assert.Equal(t, k, msg.KCO2)

	msg, err = parseMessage([]byte(`{"ID":9,"pCO2w":350,"pCO2a":410,"SST":10,"SSS":30,"u":2}`), names, now)
	require.NoError(t, err)
	assert.Equal(t, "UNKNOWN", msg.Name)
	assert.Less(t, msg.Flux, 0.)
}

func TestParseMessageInvalid(t *testing.T) {
	_, err := parseMessage([]byte(`{"ID":1,"pCO2w":0,"pCO2a":0,"SST":0,"SSS":0,"u":0}`), nil, time.Now())
	assert.ErrorIs(t, err, errNoData)

	_, err = parseMessage([]byte(`{"ID":1,"pCO2w":`), nil, time.Now())
	assert.Error(t, err)
}

func TestStringCsv(t *testing.T) {
	msg, err := parseMessage([]byte(buoyReply), map[uint8]string{1: "Douala"}, time.Now().UTC())
	require.NoError(t, err)

	line := msg.StringCsv(CSVSEP)
	header := msg.CsvHeader(CSVSEP)
	assert.True(t, strings.HasSuffix(line, "\n"))
	assert.Equal(t, strings.Count(header, CSVSEP), strings.Count(line, CSVSEP))
	assert.Contains(t, line, ";1;Douala;400.000;380.000;25.000;35.000;5.000;")
	assert.Contains(t, line, ";20.000;")
	assert.Contains(t, msg.String(), "dpCO2: 20.00 µatm")
}

func TestToInfluxPoint(t *testing.T) {
	now := time.Date(2024, 12, 30, 12, 0, 0, 0, time.UTC)
	msg, err := parseMessage([]byte(buoyReply), map[uint8]string{1: "Douala"}, now)
	require.NoError(t, err)

	p := msg.ToInfluxPoint()
	assert.Equal(t, "Douala", p.Name())
	assert.Equal(t, now, p.Time())
	lp := write.PointToLineProtocol(p, time.Second)
	assert.True(t, strings.HasPrefix(lp, "Douala,id=1 "))
	assert.Contains(t, lp, "dpCO2=20")
	assert.Contains(t, lp, "pCO2w=400")
	assert.Len(t, p.FieldList(), 8)
}

func TestMakeLogfile(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2024, 12, 30, 12, 0, 0, 0, time.UTC)

	f, err := makeLogfile(dir, &now)
	require.NoError(t, err)
	f.Close()
	f, err = makeLogfile(dir, &now)
	require.NoError(t, err)
	f.Close()

	b, err := os.ReadFile(filepath.Join(dir, "20241230Z_fluxdata.csv"))
	require.NoError(t, err)
	assert.Equal(t, NewMsg().CsvHeader(CSVSEP), string(b), "header only written once")
}

func TestHandleCSVlog(t *testing.T) {
	dir := t.TempDir()
	msgIn := make(chan message)
	msgOut := make(chan message)
	sigDone := make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go handleCSVlog(ctx, dir, msgIn, msgOut, sigDone)

	msg, err := parseMessage([]byte(buoyReply), map[uint8]string{1: "Douala"}, time.Now().UTC())
	require.NoError(t, err)
	msgIn <- msg
	assert.Equal(t, msg, <-msgOut)

	cancel()
	<-sigDone

	files, err := filepath.Glob(filepath.Join(dir, "*_fluxdata.csv"))
	require.NoError(t, err)
	require.NotEmpty(t, files)
	b, err := os.ReadFile(files[len(files)-1])
	require.NoError(t, err)
	assert.Contains(t, string(b), msg.StringCsv(CSVSEP))
}

func TestHandleDBuploadDisabled(t *testing.T) {
	cfg.LogToDB = false
	msgIn := make(chan message)
	sigDone := make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())

	go handleDBupload(ctx, msgIn, sigDone)
	msgIn <- message{Name: "Douala"}
	cancel()
	<-sigDone
}

// fakeBuoy answers every UDP datagram with reply
func fakeBuoy(t *testing.T, reply string) *net.UDPConn {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	go func() {
		buf := make([]byte, 64)
		for {
			_, addr, err := conn.ReadFromUDP(buf)
			if err != nil {
				return
			}
			conn.WriteToUDP([]byte(reply), addr)
		}
	}()
	return conn
}

func TestDataCollector(t *testing.T) {
	buoy := fakeBuoy(t, buoyReply)
	defer buoy.Close()

	sources := makeSources([]SourceConfig{{Name: "Douala", ID: 1, Address: buoy.LocalAddr().String()}})
	require.Len(t, sources, 1)

	data := make(chan []byte)
	sigDone := make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go dataCollector(ctx, sources, data, sigDone)

	select {
	case b := <-data:
		assert.JSONEq(t, buoyReply, string(b))
	case <-time.After(5 * time.Second):
		t.Fatal("no data from fake buoy")
	}
	cancel()
	<-sigDone
}
