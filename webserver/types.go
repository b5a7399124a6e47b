package main

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

type Config struct {
	LogLevel     string   `yaml:"Log_Level" toml:"Log_Level"`
	ServePort    string   `yaml:"Serve_Port" toml:"Serve_Port"`
	DBtoken      string   `yaml:"DB_Token" toml:"DB_Token"`
	DBorg        string   `yaml:"DB_Org" toml:"DB_Org"`
	DBurl        string   `yaml:"DB_Url" toml:"DB_Url"`
	DBbucket     string   `yaml:"DB_Bucket" toml:"DB_Bucket"`
	Measurements []string `yaml:"Measurements" toml:"Measurements"` // buoy names to show
	PlotRange    string   `yaml:"Plot_Range" toml:"Plot_Range"`     // flux duration literal, e.g. -24h
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
	if c.PlotRange == "" {
		c.PlotRange = "-24h"
	}
	if c.ServePort == "" {
		c.ServePort = ":8080"
	}
	return nil
}

func NewCfg() *Config {
	return &Config{}
}

// struct to feed most recent sensor data to template
type Measurement struct {
	Name, Time, Type, Value string
}

type PageData struct {
	Data    []Measurement
	Updated string
}

// fluxResponse is the reply of the flux calculator endpoint
type fluxResponse struct {
	Flux  float64 `json:"flux"`  // mmol/m²/day
	DpCO2 float64 `json:"dpco2"` // µatm
	K     float64 `json:"k"`     // m/day
}
