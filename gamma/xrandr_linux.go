// SPDX-FileCopyrightText: 2024 The bs-display-control Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package gamma

import (
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/xerrors"
)

// Output names reaching process arguments are restricted to the
// character set connectors can actually produce.
var validOutputName = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

var ErrBadOutputName = xerrors.New("gamma: output name rejected")

// XrandrSetBrightness shells out to xrandr for the software brightness
// property. Fallback for X11 sessions without a usable direct RandR
// connection.
func XrandrSetBrightness(outputName string, factor float64) error {
	if !validOutputName.MatchString(outputName) {
		return xerrors.Errorf("%q: %w", outputName, ErrBadOutputName)
	}
	if factor < 0 {
		factor = 0
	} else if factor > 1 {
		factor = 1
	}
	err := exec.Command("xrandr", "--output", outputName,
		"--brightness", strconv.FormatFloat(factor, 'f', 4, 64)).Run()
	if err != nil {
		return xerrors.Errorf("xrandr --brightness: %w", err)
	}
	return nil
}

// XrandrGetBrightness parses `xrandr --verbose` for the Brightness
// property of one output. This predates the DDC paths and stays as an
// extra read tier.
func XrandrGetBrightness(outputName string) (float64, error) {
	if !validOutputName.MatchString(outputName) {
		return 0, xerrors.Errorf("%q: %w", outputName, ErrBadOutputName)
	}
	out, err := exec.Command("xrandr", "--verbose").Output()
	if err != nil {
		return 0, xerrors.Errorf("xrandr --verbose: %w", err)
	}
	return parseXrandrBrightness(string(out), outputName)
}

func parseXrandrBrightness(out, outputName string) (float64, error) {
	lines := strings.Split(out, "\n")
	inOutput := false
	for _, line := range lines {
		if strings.HasPrefix(line, outputName+" connected") {
			inOutput = true
			continue
		}
		if inOutput {
			// next output section starts at column zero
			if len(line) > 0 && line[0] != ' ' && line[0] != '\t' {
				break
			}
			trimmed := strings.TrimSpace(line)
			if strings.HasPrefix(trimmed, "Brightness:") {
				value := strings.TrimSpace(strings.TrimPrefix(trimmed, "Brightness:"))
				return strconv.ParseFloat(value, 64)
			}
		}
	}
	return 0, xerrors.Errorf("%s: %w", outputName, ErrOutputNotFound)
}
