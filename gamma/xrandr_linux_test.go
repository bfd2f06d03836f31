// SPDX-FileCopyrightText: 2024 The bs-display-control Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package gamma

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidOutputName(t *testing.T) {
	valid := []string{"DP-1", "HDMI-1", "eDP-1", "LVDS_1", "Virtual-1"}
	for _, name := range valid {
		assert.True(t, validOutputName.MatchString(name), name)
	}
	invalid := []string{"", "DP 1", "DP-1;reboot", "$(id)", "DP-1\n", "héllo"}
	for _, name := range invalid {
		assert.False(t, validOutputName.MatchString(name), name)
	}
}

func TestXrandrRejectsBadName(t *testing.T) {
	err := XrandrSetBrightness("DP-1; rm -rf /", 0.5)
	assert.ErrorIs(t, err, ErrBadOutputName)

	_, err = XrandrGetBrightness("$(true)")
	assert.ErrorIs(t, err, ErrBadOutputName)
}

const xrandrVerboseSample = `Screen 0: minimum 8 x 8, current 3840 x 1080, maximum 16384 x 16384
DP-1 connected primary 1920x1080+0+0 (0x47) normal (normal left inverted right x axis y axis) 527mm x 296mm
	Identifier: 0x43
	Timestamp:  12345
	Brightness: 0.80
	Gamma:      1.0:1.0:1.0
HDMI-1 connected 1920x1080+1920+0 (0x47) normal (normal left inverted right x axis y axis) 521mm x 293mm
	Identifier: 0x44
	Brightness: 1.0
DP-2 disconnected (normal left inverted right x axis y axis)
`

func TestParseXrandrBrightness(t *testing.T) {
	v, err := parseXrandrBrightness(xrandrVerboseSample, "DP-1")
	assert.NoError(t, err)
	assert.InDelta(t, 0.80, v, 1e-9)

	v, err = parseXrandrBrightness(xrandrVerboseSample, "HDMI-1")
	assert.NoError(t, err)
	assert.InDelta(t, 1.0, v, 1e-9)

	_, err = parseXrandrBrightness(xrandrVerboseSample, "DP-2")
	assert.ErrorIs(t, err, ErrOutputNotFound)

	_, err = parseXrandrBrightness(xrandrVerboseSample, "eDP-1")
	assert.ErrorIs(t, err, ErrOutputNotFound)
}
