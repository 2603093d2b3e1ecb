package main

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/covid-projections/covid-data-model/server"
)

// Config .
type Config struct {
	DebugPort int    `yaml:"DebugPort"`
	LogLevel  string `yaml:"LogLevel"`
	LogPath   string `yaml:"LogPath"`

	Server server.Config `yaml:"Server"`
}

func loadConfig() (*Config, error) {
	confenv := os.Getenv("CONF_ENV")
	confpath := "./conf/config.yml"
	if confenv != "" {
		confpath += "." + confenv
	}

	confbuf, err := os.ReadFile(confpath)
	if err != nil {
		return nil, fmt.Errorf("open config file err: %v", err)
	}

	var config Config
	if err := yaml.Unmarshal(confbuf, &config); err != nil {
		return nil, fmt.Errorf("unmarshal yaml err: %v", err)
	}

	// print config
	if buf, err := json.MarshalIndent(config, "", "  "); err == nil {
		fmt.Println("config >>>>>>>>>>>>>>>>>>>>>>>>>>>>>")
		fmt.Println(string(buf))
		fmt.Println()
	} else {
		fmt.Println(config)
	}

	return &config, nil
}
