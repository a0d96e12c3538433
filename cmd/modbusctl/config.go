package main

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// runtimeConfig is everything the process needs at startup.
type runtimeConfig struct {
	Addr        string
	UnitID      uint8
	DiagAddr    string
	CorsOrigins []string
	HistoryFile string
}

func defaultRuntimeConfig() runtimeConfig {
	return runtimeConfig{
		Addr:        ":5020",
		UnitID:      1,
		HistoryFile: "/tmp/modbusctl_history",
	}
}

// modbusctl config.toml key mapping to runtime settings.
type fileConfig struct {
	Addr        string   `toml:"addr"`
	UnitID      int      `toml:"unit_id"`
	DiagAddr    string   `toml:"diag_addr"`
	CorsOrigins []string `toml:"cors_origins"`
	HistoryFile string   `toml:"history_file"`
}

// loadRuntimeConfig overlays file values onto compiled defaults; only
// keys present in the file override.
func loadRuntimeConfig(path string) (runtimeConfig, error) {
	cfg := defaultRuntimeConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return runtimeConfig{}, fmt.Errorf("load config: %w", err)
	}

	if meta.IsDefined("addr") {
		cfg.Addr = strings.TrimSpace(raw.Addr)
	}
	if meta.IsDefined("unit_id") {
		if raw.UnitID < 0 || raw.UnitID > 247 {
			return runtimeConfig{}, fmt.Errorf("config unit_id out of range: %d", raw.UnitID)
		}
		cfg.UnitID = uint8(raw.UnitID)
	}
	if meta.IsDefined("diag_addr") {
		cfg.DiagAddr = strings.TrimSpace(raw.DiagAddr)
	}
	if meta.IsDefined("cors_origins") {
		cfg.CorsOrigins = raw.CorsOrigins
	}
	if meta.IsDefined("history_file") {
		cfg.HistoryFile = strings.TrimSpace(raw.HistoryFile)
	}

	if err := validateRuntimeConfig(cfg); err != nil {
		return runtimeConfig{}, err
	}
	return cfg, nil
}

func validateRuntimeConfig(cfg runtimeConfig) error {
	if strings.TrimSpace(cfg.Addr) == "" {
		return fmt.Errorf("config missing addr")
	}
	return nil
}
