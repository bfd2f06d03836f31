// SPDX-FileCopyrightText: 2024 The bs-display-control Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package display

import (
	"math"

	"golang.org/x/xerrors"
)

var ErrAllTiersFailed = xerrors.New("display: no control mechanism succeeded")

// attempt is one mechanism in a fallback chain.
type attempt struct {
	name string
	run  func() error
}

// tryEach runs attempts in order and stops at the first success.
// Failures below the successful tier are logged, not reported.
func tryEach(op string, attempts []attempt) error {
	var lastErr error
	for _, a := range attempts {
		err := a.run()
		if err == nil {
			logger.Debugf("%s via %s", op, a.name)
			return nil
		}
		logger.Debugf("%s via %s failed: %v", op, a.name, err)
		lastErr = err
	}
	if lastErr == nil {
		return xerrors.Errorf("%s: %w", op, ErrAllTiersFailed)
	}
	return xerrors.Errorf("%s: %v: %w", op, lastErr, ErrAllTiersFailed)
}

// rawFromFraction maps a fraction onto [0,max]. Nonzero fractions never
// round down to 0, which on many monitors means "off".
func rawFromFraction(frac float64, max int) int {
	value := int(math.Round(frac * float64(max)))
	if value < 1 && frac > 0 {
		value = 1
	}
	if value > max {
		value = max
	}
	return value
}
