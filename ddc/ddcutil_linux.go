// SPDX-FileCopyrightText: 2024 The bs-display-control Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package ddc

import (
	"fmt"
	"os/exec"
	"strconv"
	"sync"

	"golang.org/x/xerrors"
)

var ErrToolUnavailable = xerrors.New("ddc: ddcutil not found")

// Tool shells out to ddcutil when direct bus access is unavailable.
// Availability is probed once per process and cached.
type Tool struct {
	// Path overrides the binary looked up on PATH.
	Path string

	probeOnce sync.Once
	path      string
	available bool
}

func (t *Tool) probe() {
	t.probeOnce.Do(func() {
		name := t.Path
		if name == "" {
			name = "ddcutil"
		}
		path, err := exec.LookPath(name)
		if err != nil {
			logger.Debug("ddcutil not available:", err)
			return
		}
		t.path = path
		t.available = true
	})
}

// Available reports whether the external tool can be used.
func (t *Tool) Available() bool {
	t.probe()
	return t.available
}

// GetVCP runs `ddcutil getvcp <code> --bus N --brief` and parses the
// brief machine-readable reply `VCP <code> C <current> <max>`.
func (t *Tool) GetVCP(bus int, code byte) (current, max int, err error) {
	if !t.Available() {
		return 0, 0, ErrToolUnavailable
	}
	// Arguments are built as a vector, never a shell string. Bus numbers
	// come from the enumerator but the rule holds regardless.
	out, err := exec.Command(t.path, "getvcp", fmt.Sprintf("%x", code),
		"--bus", strconv.Itoa(bus), "--brief").Output()
	if err != nil {
		return 0, 0, xerrors.Errorf("ddcutil getvcp bus %d: %w", bus, err)
	}
	return parseBriefVCP(string(out), code)
}

// SetVCP runs `ddcutil setvcp <code> <value> --bus N --noverify`.
func (t *Tool) SetVCP(bus int, code byte, value int) error {
	if !t.Available() {
		return ErrToolUnavailable
	}
	err := exec.Command(t.path, "setvcp", fmt.Sprintf("%x", code),
		strconv.Itoa(value), "--bus", strconv.Itoa(bus), "--noverify").Run()
	if err != nil {
		return xerrors.Errorf("ddcutil setvcp bus %d: %w", bus, err)
	}
	return nil
}

func parseBriefVCP(out string, code byte) (current, max int, err error) {
	var gotCode int
	var cur, maxVal int
	n, _ := fmt.Sscanf(out, "VCP %x C %d %d", &gotCode, &cur, &maxVal)
	if n != 3 || byte(gotCode) != code {
		return 0, 0, xerrors.Errorf("unexpected ddcutil reply %q: %w", out, ErrProtocol)
	}
	if maxVal <= 0 {
		return 0, 0, xerrors.Errorf("max value %d: %w", maxVal, ErrProtocol)
	}
	return cur, maxVal, nil
}
