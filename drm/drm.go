// SPDX-FileCopyrightText: 2024 The bs-display-control Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package drm walks the kernel DRM connector topology under sysfs and
// aggregates per-display identity and control channel candidates.
package drm

import (
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/chandanbsd/bs-display-control/edid"
	"github.com/linuxdeepin/go-lib/log"
)

var logger = log.NewLogger("bsdisplayctl/drm")

const DefaultBasePath = "/sys/class/drm"

// connector entries look like card0-HDMI-A-1, never bare card0
var regCardOutput = regexp.MustCompile(`^card\d+-.+`)

// Connector is one connected display connector.
type Connector struct {
	// Name is the raw sysfs entry name, e.g. "card1-DP-1".
	Name string
	// OutputName is the windowing system facing name, e.g. "DP-1".
	OutputName string
	// EdidName is the parsed monitor name, "" when the EDID is absent
	// or malformed.
	EdidName string
	BuiltIn  bool
	// I2CBus is the primary DDC bus from the i2c-* subdirectory, -1
	// when none was found.
	I2CBus int
	// I2CBusDDC is the secondary bus from the ddc symlink, -1 when
	// none was found. Both are try-candidates when they differ.
	I2CBusDDC int
}

// Buses returns the candidate bus numbers in try order, deduplicated.
func (c *Connector) Buses() []int {
	var buses []int
	if c.I2CBus >= 0 {
		buses = append(buses, c.I2CBus)
	}
	if c.I2CBusDDC >= 0 && c.I2CBusDDC != c.I2CBus {
		buses = append(buses, c.I2CBusDDC)
	}
	return buses
}

// OutputNameOf maps a DRM connector name to the output name the
// windowing system uses: strip the card prefix and drop the "-A" type
// designator xrandr omits, so "card1-HDMI-A-1" becomes "HDMI-1".
func OutputNameOf(connector string) string {
	idx := strings.Index(connector, "-")
	if idx < 0 {
		return connector
	}
	name := connector[idx+1:]
	if strings.HasPrefix(name, "HDMI-A-") {
		name = "HDMI-" + name[len("HDMI-A-"):]
	}
	return name
}

// see gnome-desktop gnome-rr.c '_gnome_rr_output_name_is_builtin_display'
func isBuiltinName(name string) bool {
	name = strings.ToLower(name)
	switch {
	case strings.HasPrefix(name, "edp"):
		return true
	case strings.HasPrefix(name, "lvds"):
		return true
	case strings.HasPrefix(name, "dsi"):
		return true
	case strings.HasPrefix(name, "lcd"):
		// fglrx uses "LCD" in some versions
		return true
	}
	return false
}

// Enumerate returns every connected connector under the default sysfs
// root.
func Enumerate() ([]Connector, error) {
	return EnumerateIn(DefaultBasePath)
}

// EnumerateIn walks an alternate sysfs root. Control-only entries
// (card0, renderD128), writeback pseudo connectors and disconnected
// connectors are skipped.
func EnumerateIn(base string) ([]Connector, error) {
	entries, err := os.ReadDir(base)
	if err != nil {
		return nil, err
	}

	var connectors []Connector
	for _, entry := range entries {
		name := entry.Name()
		if !regCardOutput.MatchString(name) {
			continue
		}
		if strings.Contains(name, "Writeback") {
			continue
		}
		dir := filepath.Join(base, name)

		status, err := os.ReadFile(filepath.Join(dir, "status"))
		if err != nil || strings.TrimSpace(string(status)) != "connected" {
			continue
		}

		conn := Connector{
			Name:      name,
			I2CBus:    -1,
			I2CBusDDC: -1,
		}
		conn.OutputName = OutputNameOf(name)
		conn.BuiltIn = isBuiltinName(conn.OutputName)

		if blob, err := os.ReadFile(filepath.Join(dir, "edid")); err == nil {
			conn.EdidName = edid.ParseName(blob)
		}

		conn.I2CBus = findBusSubdir(dir)
		if ddcBus := readDdcLink(dir); ddcBus >= 0 {
			if conn.I2CBus < 0 {
				conn.I2CBus = ddcBus
			} else if ddcBus != conn.I2CBus {
				conn.I2CBusDDC = ddcBus
			}
		}

		connectors = append(connectors, conn)
	}
	return connectors, nil
}

// findBusSubdir looks for an i2c-N subdirectory of the connector.
func findBusSubdir(dir string) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return -1
	}
	for _, entry := range entries {
		if bus, ok := parseBusName(entry.Name()); ok {
			return bus
		}
	}
	return -1
}

// readDdcLink resolves the ddc symlink HDMI connectors commonly carry.
func readDdcLink(dir string) int {
	target, err := os.Readlink(filepath.Join(dir, "ddc"))
	if err != nil {
		return -1
	}
	if bus, ok := parseBusName(filepath.Base(target)); ok {
		return bus
	}
	return -1
}

func parseBusName(name string) (int, bool) {
	if !strings.HasPrefix(name, "i2c-") {
		return -1, false
	}
	bus, err := strconv.Atoi(name[len("i2c-"):])
	if err != nil || bus < 0 {
		logger.Debug("ignoring malformed i2c entry:", name)
		return -1, false
	}
	return bus, true
}
