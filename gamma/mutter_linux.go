// SPDX-FileCopyrightText: 2024 The bs-display-control Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package gamma

import (
	"context"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
	"golang.org/x/xerrors"
)

const (
	mutterDest  = "org.gnome.Shell"
	mutterPath  = "/org/gnome/Mutter/DisplayConfig"
	mutterIface = "org.gnome.Mutter.DisplayConfig"

	// compositor calls are bounded, failure downgrades the tier
	mutterCallTimeout = 5 * time.Second
)

// mutter GetResources wire structures, field order fixed by the
// signature (u a(uxiiiiiuaua{sv}) a(uxiausauaua{sv}) a(uxuudu) i i)
type mutterCrtc struct {
	ID               uint32
	WinsysID         int64
	X, Y             int32
	Width, Height    int32
	CurrentMode      int32
	CurrentTransform uint32
	Transforms       []uint32
	Properties       map[string]dbus.Variant
}

type mutterOutput struct {
	ID            uint32
	WinsysID      int64
	CurrentCrtc   int32
	PossibleCrtcs []uint32
	Name          string
	Modes         []uint32
	Clones        []uint32
	Properties    map[string]dbus.Variant
}

type mutterMode struct {
	ID        uint32
	WinsysID  int64
	Width     uint32
	Height    uint32
	Frequency float64
	Flags     uint32
}

type outputInfo struct {
	crtc      uint32
	gammaSize int
}

// MutterClient applies gamma through the compositor's DisplayConfig
// interface, the only per-output gamma channel under Wayland. The
// output name to CRTC mapping is cached together with the resource
// serial, which must be replayed unchanged in SetCrtcGamma.
type MutterClient struct {
	conn *dbus.Conn

	mu      sync.Mutex
	queried bool
	serial  uint32
	outputs map[string]outputInfo
}

func NewMutterClient() (*MutterClient, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, xerrors.Errorf("session bus: %w", err)
	}
	return &MutterClient{conn: conn}, nil
}

func (c *MutterClient) call(method string, args ...interface{}) *dbus.Call {
	ctx, cancel := context.WithTimeout(context.Background(), mutterCallTimeout)
	defer cancel()
	obj := c.conn.Object(mutterDest, mutterPath)
	return obj.CallWithContext(ctx, mutterIface+"."+method, 0, args...)
}

// refresh rebuilds the serial and output mapping. Caller holds c.mu.
func (c *MutterClient) refresh() error {
	c.queried = true
	c.outputs = nil

	var (
		serial     uint32
		crtcs      []mutterCrtc
		outputs    []mutterOutput
		modes      []mutterMode
		maxW, maxH int32
	)
	err := c.call("GetResources").Store(&serial, &crtcs, &outputs, &modes, &maxW, &maxH)
	if err != nil {
		return xerrors.Errorf("GetResources: %w", err)
	}

	infos := make(map[string]outputInfo)
	for _, out := range outputs {
		if out.CurrentCrtc < 0 {
			// output not driven by any CRTC
			continue
		}
		info := outputInfo{crtc: uint32(out.CurrentCrtc)}

		var red, green, blue []uint16
		err := c.call("GetCrtcGamma", serial, info.crtc).Store(&red, &green, &blue)
		if err != nil {
			logger.Warningf("GetCrtcGamma for %s: %v", out.Name, err)
		} else {
			info.gammaSize = len(red)
		}
		infos[out.Name] = info
	}

	c.serial = serial
	c.outputs = infos
	logger.Debugf("mutter resources: serial=%d outputs=%d", serial, len(infos))
	return nil
}

func (c *MutterClient) lookup(outputName string) (uint32, outputInfo, bool) {
	info, ok := c.outputs[outputName]
	return c.serial, info, ok
}

// SetOutputGamma scales the output's gamma table by factor. When the
// output name is missing from the cached mapping, the mapping is
// invalidated and re-queried once before failing: topology may have
// changed since the last enumeration.
func (c *MutterClient) SetOutputGamma(outputName string, factor float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.queried {
		if err := c.refresh(); err != nil {
			return err
		}
	}
	serial, info, ok := c.lookup(outputName)
	if !ok {
		if err := c.refresh(); err != nil {
			return err
		}
		serial, info, ok = c.lookup(outputName)
	}
	if !ok {
		return xerrors.Errorf("%s: %w", outputName, ErrOutputNotFound)
	}
	if info.gammaSize <= 0 {
		return xerrors.Errorf("gamma: output %s has no gamma table", outputName)
	}

	ramp := Ramp(info.gammaSize, factor)
	err := c.call("SetCrtcGamma", serial, info.crtc, ramp, ramp, ramp).Err
	if err != nil {
		return xerrors.Errorf("SetCrtcGamma for %s: %w", outputName, err)
	}
	return nil
}
