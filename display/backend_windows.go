// SPDX-FileCopyrightText: 2024 The bs-display-control Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package display

import (
	"fmt"
	"math"

	"github.com/chandanbsd/bs-display-control/config"
	"github.com/chandanbsd/bs-display-control/gamma"
	"golang.org/x/xerrors"
)

// winBackend pairs the DDC high level monitor API (dxva2) for external
// monitors with WMI for the built-in panel. Software dimming goes
// through the GDI gamma ramp.
type winBackend struct {
	cfg *config.Config
}

func newBackend(cfg *config.Config) backend {
	return &winBackend{cfg: cfg}
}

func (b *winBackend) list() ([]*Display, error) {
	monitors, err := enumMonitors()
	if err != nil {
		return nil, err
	}
	defer destroyPhysicalMonitors(monitors)

	wmiPanel := hasWMIPanel()
	var displays []*Display
	for i := range monitors {
		mon := &monitors[i]
		builtin := len(mon.Physicals) == 0 && wmiPanel
		name := mon.description()
		if name == "" {
			name = mon.Device
		}
		if name == "" {
			name = fmt.Sprintf("Display %d", i+1)
		}
		d := &Display{
			ID:          fmt.Sprintf("monitor:%d", i),
			Name:        name,
			IsBuiltIn:   builtin || mon.Primary && len(monitors) == 1 && wmiPanel,
			isBacklight: builtin,
			outputName:  mon.Device,
			index:       i,
		}
		d.Brightness = b.readBrightness(mon, builtin)
		displays = append(displays, d)
	}
	return displays, nil
}

func (b *winBackend) readBrightness(mon *winMonitor, builtin bool) float64 {
	if builtin {
		percent, err := wmiPanelBrightness()
		if err == nil {
			return float64(percent) / 100
		}
		logger.Debug("wmi brightness:", err)
		return 1.0
	}
	for _, p := range mon.Physicals {
		min, cur, max, err := getMonitorBrightness(p.Handle)
		if err != nil || max <= min {
			continue
		}
		return float64(cur-min) / float64(max-min)
	}
	return 1.0
}

// resolve re-enumerates and returns the monitor at the display's
// position. Handles from the last enumeration are stale, so every
// operation resolves fresh ones.
func (b *winBackend) resolve(d *Display) ([]winMonitor, *winMonitor, error) {
	monitors, err := enumMonitors()
	if err != nil {
		return nil, nil, err
	}
	if d.index >= len(monitors) {
		destroyPhysicalMonitors(monitors)
		return nil, nil, xerrors.Errorf("%q: %w", d.ID, ErrNotFound)
	}
	return monitors, &monitors[d.index], nil
}

func (b *winBackend) getBrightness(d *Display) (float64, error) {
	monitors, mon, err := b.resolve(d)
	if err != nil {
		return 1.0, err
	}
	defer destroyPhysicalMonitors(monitors)
	return b.readBrightness(mon, d.isBacklight), nil
}

func (b *winBackend) setBrightness(d *Display, frac float64) error {
	setter := b.cfg.Setter
	var attempts []attempt
	if d.isBacklight {
		if setter == config.SetterAuto || setter == config.SetterBacklight {
			attempts = append(attempts,
				attempt{"wmi", func() error {
					return wmiSetPanelBrightness(uint8(math.Round(frac * 100)))
				}})
		}
	} else if setter == config.SetterAuto || setter == config.SetterDDC {
		attempts = append(attempts,
			attempt{"ddc", func() error { return b.setDDC(d, frac) }})
	}
	if setter == config.SetterAuto || setter == config.SetterGamma {
		attempts = append(attempts,
			attempt{"gamma", func() error { return b.setSoftwareBrightness(d, frac) }})
	}
	if len(attempts) == 0 {
		return xerrors.Errorf("setter %q cannot drive %s: %w", setter, d.ID, ErrAllTiersFailed)
	}
	return tryEach("set "+d.ID, attempts)
}

// setDDC scales frac into the monitor's reported [min,max] range; the
// range is rarely 0..100 on external panels.
func (b *winBackend) setDDC(d *Display, frac float64) error {
	monitors, mon, err := b.resolve(d)
	if err != nil {
		return err
	}
	defer destroyPhysicalMonitors(monitors)

	var lastErr error
	for _, p := range mon.Physicals {
		min, _, max, err := getMonitorBrightness(p.Handle)
		if err != nil {
			lastErr = err
			continue
		}
		if max <= min {
			lastErr = xerrors.Errorf("brightness range [%d,%d] unusable", min, max)
			continue
		}
		value := min + uint32(math.Round(frac*float64(max-min)))
		if err := setMonitorBrightness(p.Handle, value); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	if lastErr == nil {
		lastErr = xerrors.New("display: no physical monitor handle")
	}
	return lastErr
}

func (b *winBackend) setSoftwareBrightness(d *Display, factor float64) error {
	device := d.outputName
	if device == "" {
		monitors, mon, err := b.resolve(d)
		if err != nil {
			return err
		}
		device = mon.Device
		destroyPhysicalMonitors(monitors)
		if device == "" {
			return xerrors.Errorf("%s: no GDI device name", d.ID)
		}
	}
	return setDeviceGamma(device, gamma.Ramp(256, factor))
}
