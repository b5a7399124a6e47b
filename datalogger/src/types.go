package main

import (
	"fmt"
	"net"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"gopkg.in/yaml.v3"

	"odisco_co2flux/co2flux"
)

type Config struct {
	LogLevel     string         `yaml:"Log_Level" toml:"Log_Level"`         // zerolog logger level
	DataSavePath string         `yaml:"Path_Data_Log" toml:"Path_Data_Log"` // where to save csvs
	LogToDB      bool           `yaml:"Log_to_DB" toml:"Log_to_DB"`
	DBtoken      string         `yaml:"DB_Token" toml:"DB_Token"`
	DBorg        string         `yaml:"DB_Org" toml:"DB_Org"`
	DBurl        string         `yaml:"DB_Url" toml:"DB_Url"`
	DBbucket     string         `yaml:"DB_Bucket" toml:"DB_Bucket"`
	Sources      []SourceConfig `yaml:"Sources" toml:"Sources"`
}

// SourceConfig declares one buoy sensor that should be polled.
type SourceConfig struct {
	Name    string `yaml:"Name" toml:"Name"`
	ID      uint8  `yaml:"ID" toml:"ID"`
	Address string `yaml:"Address" toml:"Address"` // host:port, UDP
}

// Load reads the config from a yaml file, or from a toml file if the
// extension is .toml.
func (c *Config) Load(cfgPath string) error {
	if cfgPath == "" {
		cfgPath += "./cfg/config.yml"
	}

	cfgPath = path.Clean(cfgPath)
	b, err := os.ReadFile(cfgPath)
	if err != nil {
		return err
	}
	if strings.EqualFold(filepath.Ext(cfgPath), ".toml") {
		err = toml.Unmarshal(b, c)
	} else {
		err = yaml.Unmarshal(b, c)
	}
	if err != nil {
		return fmt.Errorf("parse config '%v': %w", cfgPath, err)
	}
	return nil
}

// id2Name maps source IDs to names
func (c *Config) id2Name() map[uint8]string {
	m := make(map[uint8]string, len(c.Sources))
	for _, s := range c.Sources {
		m[s.ID] = s.Name
	}
	return m
}

func NewCfg() *Config {
	return &Config{}
}

// source represents one buoy sensor that should be queried
// for pCO2, SST, SSS and wind data.
type source struct {
	id          uint8
	name        string
	address     string
	UDPaddress  *net.UDPAddr
	lastContact time.Time
}

// message represents the data in a UDP reply from a buoy sensor,
// plus the derived flux quantities.
type message struct {
	Timestamp time.Time
	ID        uint8 `json:"ID"`
	Name      string
	PCO2Water float64 `json:"pCO2w"` // µatm
	PCO2Atm   float64 `json:"pCO2a"` // µatm
	SST       float64 `json:"SST"`   // °C
	SSS       float64 `json:"SSS"`
	Wind      float64 `json:"u"` // m/s
	Flux      float64 `json:"-"` // mmol/m²/day
	DpCO2     float64 `json:"-"` // µatm
	KCO2      float64 `json:"-"` // m/day
}

func NewMsg() *message {
	return &message{}
}

// measurement returns the flux calculation inputs of a message
func (m *message) measurement() co2flux.Measurement {
	return co2flux.Measurement{
		PCO2Water: m.PCO2Water,
		PCO2Atm:   m.PCO2Atm,
		SST:       m.SST,
		SSS:       m.SSS,
		Wind:      m.Wind,
	}
}

// computeFlux fills the derived quantities
func (m *message) computeFlux() {
	r := co2flux.Compute(m.measurement())
	m.Flux = r.Flux
	m.DpCO2 = r.DeltaPCO2
	m.KCO2 = r.TransferVelocity
}

// String builds the full string repr of a message
func (m *message) String() string {
	repr := fmt.Sprintf("Timestamp: %v, ", m.Timestamp.Format("2006-01-02 15:04:05 -07:00"))
	repr += fmt.Sprintf("Name: %v, ", m.Name)
	repr += fmt.Sprintf("ID: %v\n", m.ID)
	repr += fmt.Sprintf("pCO2 water: %.2f µatm, ", m.PCO2Water)
	repr += fmt.Sprintf("pCO2 air: %.2f µatm, ", m.PCO2Atm)
	repr += fmt.Sprintf("SST: %.2f °C, ", m.SST)
	repr += fmt.Sprintf("SSS: %.2f, ", m.SSS)
	repr += fmt.Sprintf("Wind: %.2f m/s\n", m.Wind)
	repr += fmt.Sprintf("Flux: %.4f mmol/m²/day, ", m.Flux)
	repr += fmt.Sprintf("dpCO2: %.2f µatm, ", m.DpCO2)
	repr += fmt.Sprintf("K: %.3f m/day", m.KCO2)
	return repr
}

// StringShort builds a shorter repr of a message
func (m *message) StringShort() string {
	repr := fmt.Sprintf("%v: ", m.Timestamp.Format("2006-01-02 15:04:05"))
	repr += fmt.Sprintf("%-14v ", m.Name)
	repr += fmt.Sprintf("%.1f/%.1f µatm, ", m.PCO2Water, m.PCO2Atm)
	repr += fmt.Sprintf("%.2f°C, ", m.SST)
	repr += fmt.Sprintf("%.2f psu, ", m.SSS)
	repr += fmt.Sprintf("%.1f m/s, ", m.Wind)
	repr += fmt.Sprintf("F=%.4f mmol/m²/d", m.Flux)
	return repr
}

// StringCsv builds a csv repr of a message
func (m *message) StringCsv(sep string) string {
	repr := m.Timestamp.Format(time.RFC3339) + sep
	repr += fmt.Sprintf("%v%v", m.ID, sep)
	repr += m.Name + sep
	repr += fmt.Sprintf("%.3f%v", m.PCO2Water, sep)
	repr += fmt.Sprintf("%.3f%v", m.PCO2Atm, sep)
	repr += fmt.Sprintf("%.3f%v", m.SST, sep)
	repr += fmt.Sprintf("%.3f%v", m.SSS, sep)
	repr += fmt.Sprintf("%.3f%v", m.Wind, sep)
	repr += fmt.Sprintf("%.6f%v", m.Flux, sep)
	repr += fmt.Sprintf("%.3f%v", m.DpCO2, sep)
	repr += fmt.Sprintf("%.6f", m.KCO2)
	return repr + "\n"
}

// CsvHeader builds a csv header line for logging messages
func (m *message) CsvHeader(sep string) string {
	return strings.Join([]string{"datetime", "id", "name", "pCO2w_uatm", "pCO2a_uatm",
		"sst_degC", "sss_psu", "wind_ms", "flux_mmolm2d", "dpCO2_uatm", "k_mday"}, sep) + "\n"
}

// ToInfluxPoint converts message to influxDB point
func (m *message) ToInfluxPoint() *write.Point {
	return influxdb2.NewPointWithMeasurement(m.Name).
		AddTag("id", fmt.Sprintf("%d", m.ID)).
		AddField("pCO2w", m.PCO2Water).
		AddField("pCO2a", m.PCO2Atm).
		AddField("SST", m.SST).
		AddField("SSS", m.SSS).
		AddField("u", m.Wind).
		AddField("F", m.Flux).
		AddField("dpCO2", m.DpCO2).
		AddField("K", m.KCO2).
		SetTime(m.Timestamp)
}
