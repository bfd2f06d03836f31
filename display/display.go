// SPDX-FileCopyrightText: 2024 The bs-display-control Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package display discovers controllable displays and routes brightness
// operations through a prioritized chain of control mechanisms.
package display

import (
	"math"

	"github.com/linuxdeepin/go-lib/log"
	"golang.org/x/xerrors"
)

var logger = log.NewLogger("bsdisplayctl/display")

// BuiltinID is the sentinel display id for the sysfs backlight device.
const BuiltinID = "backlight"

// drmIDPrefix namespaces connector derived ids, e.g. "drm:card1-DP-1".
const drmIDPrefix = "drm:"

var (
	ErrNotFound        = xerrors.New("display: unknown display id")
	ErrInvalidArgument = xerrors.New("display: invalid argument")
)

// Display is one discovered, controllable output. Brightness is always
// a fraction in [0,1]; conversion to hardware units never leaves the
// adapter that owns the mechanism.
type Display struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Brightness float64 `json:"brightness"`
	IsBuiltIn  bool    `json:"isBuiltIn"`

	// control channel candidates, backend specific
	isBacklight bool
	outputName  string
	buses       []int
	index       int
}

// clampFraction pins v to [0,1]. NaN is reported as an argument error
// by validateFraction before any clamping happens.
func clampFraction(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func validateFraction(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return xerrors.Errorf("brightness %v: %w", v, ErrInvalidArgument)
	}
	return nil
}
