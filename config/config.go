// SPDX-FileCopyrightText: 2024 The bs-display-control Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package config loads the optional user configuration file.
package config

import (
	"os"
	"path/filepath"

	"github.com/linuxdeepin/go-lib/log"
	"gopkg.in/yaml.v3"
)

var logger = log.NewLogger("bsdisplayctl/config")

// Setter values force one brightness mechanism instead of the tiered
// auto dispatch.
const (
	SetterAuto      = "auto"
	SetterBacklight = "backlight"
	SetterDDC       = "ddc"
	SetterGamma     = "gamma"
)

type Config struct {
	// Setter overrides mechanism selection, default "auto".
	Setter string `yaml:"setter"`
	// DdcutilPath points at an alternate ddcutil binary.
	DdcutilPath string `yaml:"ddcutil_path"`
	// SkipPermissionSetup disables the one-time polkit elevation; DDC
	// falls straight through to ddcutil or gamma when the bus is not
	// accessible.
	SkipPermissionSetup bool `yaml:"skip_permission_setup"`
}

func defaults() *Config {
	return &Config{Setter: SetterAuto}
}

// Load reads ~/.config/bsdisplayctl/config.yaml, returning defaults
// when the file is absent or broken. Configuration problems are logged,
// never fatal.
func Load() *Config {
	home, err := os.UserConfigDir()
	if err != nil {
		return defaults()
	}
	cfg, err := LoadFrom(filepath.Join(home, "bsdisplayctl", "config.yaml"))
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warning("failed to load config:", err)
		}
		return defaults()
	}
	return cfg
}

func LoadFrom(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := defaults()
	if err := yaml.Unmarshal(content, cfg); err != nil {
		return nil, err
	}
	switch cfg.Setter {
	case SetterAuto, SetterBacklight, SetterDDC, SetterGamma:
	default:
		logger.Warningf("unknown setter %q, using %q", cfg.Setter, SetterAuto)
		cfg.Setter = SetterAuto
	}
	return cfg, nil
}
