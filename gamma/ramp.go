// SPDX-FileCopyrightText: 2024 The bs-display-control Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package gamma simulates brightness as a last resort by scaling the
// per-channel gamma lookup table of an output. It never changes true
// backlight luminance.
package gamma

import (
	"math"

	"github.com/linuxdeepin/go-lib/log"
	"golang.org/x/xerrors"
)

var logger = log.NewLogger("bsdisplayctl/gamma")

var ErrOutputNotFound = xerrors.New("gamma: output not found")

// Ramp builds a linear lookup table of the given size scaled by a
// factor in [0,1]. Entry i is round(i/(size-1) * 65535 * factor); all
// three color channels share the same table.
func Ramp(size int, factor float64) []uint16 {
	if size <= 0 {
		return nil
	}
	if factor < 0 {
		factor = 0
	} else if factor > 1 {
		factor = 1
	}
	denom := float64(size - 1)
	if size == 1 {
		denom = 1
	}
	ramp := make([]uint16, size)
	for i := range ramp {
		v := math.Round(float64(i) / denom * math.MaxUint16 * factor)
		if v > math.MaxUint16 {
			v = math.MaxUint16
		}
		ramp[i] = uint16(v)
	}
	return ramp
}
