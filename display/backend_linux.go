// SPDX-FileCopyrightText: 2024 The bs-display-control Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package display

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/chandanbsd/bs-display-control/backlight"
	"github.com/chandanbsd/bs-display-control/config"
	"github.com/chandanbsd/bs-display-control/ddc"
	"github.com/chandanbsd/bs-display-control/drm"
	"github.com/chandanbsd/bs-display-control/gamma"
	"github.com/chandanbsd/bs-display-control/i2cperm"
	"golang.org/x/xerrors"
)

// linuxBackend drives the sysfs backlight for the built-in panel and a
// DDC/CI -> ddcutil -> gamma fallback chain for everything else.
type linuxBackend struct {
	cfg  *config.Config
	tool *ddc.Tool

	backlightRoot string
	drmRoot       string

	ensureBus func() error
	teeWrite  func(path, value string) error
	busGet    func(bus int, code byte) (current, max int, err error)
	busSet    func(bus int, code byte, value int) error
	toolGet   func(bus int, code byte) (current, max int, err error)
	toolSet   func(bus int, code byte, value int) error
	xrandrGet func(outputName string) (float64, error)
	xrandrSet func(outputName string, factor float64) error
	isWayland func() bool

	mutterOnce sync.Once
	mutter     *gamma.MutterClient
	mutterErr  error
	xOnce      sync.Once
	xcli       *gamma.XClient
	xErr       error
}

func newBackend(cfg *config.Config) backend {
	perm := i2cperm.NewManager()
	tool := &ddc.Tool{Path: cfg.DdcutilPath}
	return &linuxBackend{
		cfg:           cfg,
		tool:          tool,
		backlightRoot: backlight.DefaultBasePath,
		drmRoot:       drm.DefaultBasePath,
		ensureBus:     perm.EnsureAccess,
		teeWrite:      teeWriteFile,
		busGet:        ddc.GetVCP,
		busSet:        ddc.SetVCP,
		toolGet:       tool.GetVCP,
		toolSet:       tool.SetVCP,
		xrandrGet:     gamma.XrandrGetBrightness,
		xrandrSet:     gamma.XrandrSetBrightness,
		isWayland:     gamma.IsWaylandSession,
	}
}

func (b *linuxBackend) list() ([]*Display, error) {
	var displays []*Display
	dev, devErr := backlight.FindIn(b.backlightRoot)
	if devErr == nil {
		br, err := dev.Brightness()
		if err != nil {
			logger.Debug("read backlight:", err)
		}
		displays = append(displays, &Display{
			ID:          BuiltinID,
			Name:        fmt.Sprintf("Built-in Display (%s)", dev.Name),
			Brightness:  br,
			IsBuiltIn:   true,
			isBacklight: true,
		})
	}

	connectors, err := drm.EnumerateIn(b.drmRoot)
	if err != nil {
		if len(displays) == 0 {
			return nil, err
		}
		logger.Warning("enumerate connectors:", err)
		connectors = nil
	}
	for i := range connectors {
		c := &connectors[i]
		// the backlight entry already covers the panel
		if c.BuiltIn && devErr == nil {
			continue
		}
		name := c.EdidName
		if name == "" {
			name = c.OutputName
		}
		d := &Display{
			ID:         drmIDPrefix + c.Name,
			Name:       name,
			IsBuiltIn:  c.BuiltIn,
			outputName: c.OutputName,
			buses:      c.Buses(),
		}
		d.Brightness = b.readExternal(d)
		displays = append(displays, d)
	}
	return displays, nil
}

func (b *linuxBackend) getBrightness(d *Display) (float64, error) {
	if d.isBacklight {
		dev, err := backlight.FindIn(b.backlightRoot)
		if err != nil {
			return 1.0, err
		}
		return dev.Brightness()
	}
	return b.readExternal(d), nil
}

// readExternal walks the read tiers and reports 1.0 when none works, so
// enumeration always produces a usable value. Reads need the I2C bus
// just like writes, so the permission flow runs here too; a failed or
// declined setup simply drops through to the remaining tiers.
func (b *linuxBackend) readExternal(d *Display) float64 {
	if len(d.buses) > 0 && !b.cfg.SkipPermissionSetup {
		if err := b.ensureBus(); err != nil {
			logger.Debug("i2c access:", err)
		}
	}
	for _, bus := range d.buses {
		cur, max, err := b.busGet(bus, ddc.VCPBrightness)
		if err == nil && max > 0 {
			return float64(cur) / float64(max)
		}
	}
	for _, bus := range d.buses {
		cur, max, err := b.toolGet(bus, ddc.VCPBrightness)
		if err == nil && max > 0 {
			return float64(cur) / float64(max)
		}
	}
	if !b.isWayland() && d.outputName != "" {
		if v, err := b.xrandrGet(d.outputName); err == nil {
			return v
		}
	}
	return 1.0
}

func (b *linuxBackend) setBrightness(d *Display, frac float64) error {
	setter := b.cfg.Setter
	if d.isBacklight {
		return b.setBacklight(d, frac, setter)
	}
	var attempts []attempt
	if setter == config.SetterAuto || setter == config.SetterDDC {
		attempts = append(attempts,
			attempt{"i2c", func() error { return b.setDirect(d, frac) }},
			attempt{"ddcutil", func() error { return b.setTool(d, frac) }})
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

// setBacklight runs the panel's own chain: the plain sysfs write, then
// the same write routed through tee for systems where the brightness
// file is root-only, then gamma against the panel's connector.
func (b *linuxBackend) setBacklight(d *Display, frac float64, setter string) error {
	var attempts []attempt
	if setter == config.SetterAuto || setter == config.SetterBacklight {
		attempts = append(attempts,
			attempt{"sysfs", func() error {
				dev, err := backlight.FindIn(b.backlightRoot)
				if err != nil {
					return err
				}
				return dev.SetBrightness(frac)
			}},
			attempt{"tee", func() error {
				dev, err := backlight.FindIn(b.backlightRoot)
				if err != nil {
					return err
				}
				value, err := dev.RawValue(frac)
				if err != nil {
					return err
				}
				return b.teeWrite(dev.BrightnessPath(), strconv.Itoa(value))
			}})
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

// teeWriteFile pipes the value into tee, detaching the write from this
// process's own credentials.
func teeWriteFile(path, value string) error {
	cmd := exec.Command("tee", path)
	cmd.Stdin = strings.NewReader(value)
	if err := cmd.Run(); err != nil {
		return xerrors.Errorf("tee %s: %w", path, err)
	}
	return nil
}

// setDirect reads the VCP maximum first, then writes the scaled value
// over the same bus. Buses are tried in connector order.
func (b *linuxBackend) setDirect(d *Display, frac float64) error {
	if len(d.buses) == 0 {
		return xerrors.New("display: no ddc bus candidate")
	}
	if !b.cfg.SkipPermissionSetup {
		if err := b.ensureBus(); err != nil {
			return err
		}
	}
	var lastErr error
	for _, bus := range d.buses {
		_, max, err := b.busGet(bus, ddc.VCPBrightness)
		if err != nil {
			lastErr = err
			continue
		}
		if err := b.busSet(bus, ddc.VCPBrightness, rawFromFraction(frac, max)); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}

func (b *linuxBackend) setTool(d *Display, frac float64) error {
	if len(d.buses) == 0 {
		return xerrors.New("display: no ddc bus candidate")
	}
	var lastErr error
	for _, bus := range d.buses {
		_, max, err := b.toolGet(bus, ddc.VCPBrightness)
		if err != nil {
			lastErr = err
			continue
		}
		if err := b.toolSet(bus, ddc.VCPBrightness, rawFromFraction(frac, max)); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}

func (b *linuxBackend) setSoftwareBrightness(d *Display, factor float64) error {
	name := d.outputName
	if name == "" {
		n, err := b.builtinOutputName()
		if err != nil {
			return err
		}
		name = n
	}
	if b.isWayland() {
		c, err := b.mutterClient()
		if err != nil {
			return err
		}
		return c.SetOutputGamma(name, factor)
	}
	if c, err := b.xClient(); err == nil {
		if err := c.SetOutputGamma(name, factor); err == nil {
			return nil
		} else {
			logger.Debug("randr gamma:", err)
		}
	}
	return b.xrandrSet(name, factor)
}

// builtinOutputName resolves the connector behind the backlight entry
// so the panel can be gamma dimmed too.
func (b *linuxBackend) builtinOutputName() (string, error) {
	connectors, err := drm.EnumerateIn(b.drmRoot)
	if err != nil {
		return "", err
	}
	for i := range connectors {
		if connectors[i].BuiltIn {
			return connectors[i].OutputName, nil
		}
	}
	return "", xerrors.New("display: no built-in connector")
}

func (b *linuxBackend) mutterClient() (*gamma.MutterClient, error) {
	b.mutterOnce.Do(func() {
		b.mutter, b.mutterErr = gamma.NewMutterClient()
	})
	return b.mutter, b.mutterErr
}

func (b *linuxBackend) xClient() (*gamma.XClient, error) {
	b.xOnce.Do(func() {
		b.xcli, b.xErr = gamma.NewXClient()
	})
	return b.xcli, b.xErr
}
