// SPDX-FileCopyrightText: 2024 The bs-display-control Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package backlight drives the built-in panel through the sysfs
// backlight class.
package backlight

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/linuxdeepin/go-lib/log"
	"golang.org/x/xerrors"
)

var logger = log.NewLogger("bsdisplayctl/backlight")

const DefaultBasePath = "/sys/class/backlight"

// Drivers that expose the actual panel backlight are preferred over
// firmware interfaces such as acpi_video.
var preferredNames = []string{
	"intel_backlight",
	"amdgpu_bl0",
	"amdgpu_bl1",
	"acpi_video0",
}

var ErrNotFound = xerrors.New("backlight: no device")

// Device is one entry under the backlight class directory.
type Device struct {
	Name string
	path string
}

// Find returns the best backlight device, or ErrNotFound when the
// machine has none (desktops, most external-only setups).
func Find() (*Device, error) {
	return FindIn(DefaultBasePath)
}

// FindIn is Find against an alternate class directory root.
func FindIn(base string) (*Device, error) {
	for _, name := range preferredNames {
		path := filepath.Join(base, name)
		if _, err := os.Stat(path); err == nil {
			return &Device{Name: name, path: path}, nil
		}
	}
	entries, err := os.ReadDir(base)
	if err != nil || len(entries) == 0 {
		return nil, ErrNotFound
	}
	name := entries[0].Name()
	return &Device{Name: name, path: filepath.Join(base, name)}, nil
}

// BrightnessPath is the sysfs file a raw brightness value is written
// to, for callers that need to route the write through another process.
func (d *Device) BrightnessPath() string {
	return filepath.Join(d.path, "brightness")
}

// RawValue scales a clamped fraction to the hardware range, flooring
// non-zero requests at 1 so the panel is never driven to "off".
func (d *Device) RawValue(frac float64) (int, error) {
	if frac < 0 {
		frac = 0
	} else if frac > 1 {
		frac = 1
	}
	max, err := d.MaxBrightness()
	if err != nil {
		return 0, err
	}
	value := int(frac * float64(max))
	if value < 1 && frac > 0 {
		value = 1
	}
	return value, nil
}

func (d *Device) readInt(file string) (int, error) {
	content, err := os.ReadFile(filepath.Join(d.path, file))
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(content)))
}

// MaxBrightness reads the hardware scale ceiling.
func (d *Device) MaxBrightness() (int, error) {
	max, err := d.readInt("max_brightness")
	if err != nil {
		return 0, err
	}
	if max <= 0 {
		return 0, xerrors.Errorf("backlight %s: invalid max_brightness %d", d.Name, max)
	}
	return max, nil
}

// Brightness returns the current brightness as a fraction of the
// hardware maximum. When the value cannot be determined it returns 1.0
// so enumeration never fails on a broken driver.
func (d *Device) Brightness() (float64, error) {
	max, err := d.MaxBrightness()
	if err != nil {
		return 1.0, err
	}
	current, err := d.readInt("brightness")
	if err != nil {
		return 1.0, err
	}
	return float64(current) / float64(max), nil
}

// SetBrightness writes the fraction scaled to the hardware range. The
// fraction is clamped to [0,1] and the raw value is floored at 1 for any
// non-zero request so the panel is never driven to "off".
func (d *Device) SetBrightness(frac float64) error {
	value, err := d.RawValue(frac)
	if err != nil {
		return err
	}

	file := d.BrightnessPath()
	fh, err := os.OpenFile(file, os.O_WRONLY|os.O_TRUNC, 0666)
	if err != nil {
		return xerrors.Errorf("open %s: %w", file, err)
	}
	defer fh.Close()

	_, err = fh.WriteString(strconv.Itoa(value))
	if err != nil {
		return xerrors.Errorf("write %s: %w", file, err)
	}
	logger.Debugf("set %s to %d", d.Name, value)
	return nil
}
