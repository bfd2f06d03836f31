// SPDX-FileCopyrightText: 2024 The bs-display-control Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package ddc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseBriefVCP(t *testing.T) {
	current, max, err := parseBriefVCP("VCP 10 C 35 100\n", VCPBrightness)
	assert.NoError(t, err)
	assert.Equal(t, 35, current)
	assert.Equal(t, 100, max)

	_, _, err = parseBriefVCP("VCP 12 C 35 100\n", VCPBrightness)
	assert.ErrorIs(t, err, ErrProtocol)

	_, _, err = parseBriefVCP("Display not found\n", VCPBrightness)
	assert.ErrorIs(t, err, ErrProtocol)

	_, _, err = parseBriefVCP("VCP 10 C 35 0\n", VCPBrightness)
	assert.ErrorIs(t, err, ErrProtocol)
}

func TestToolUnavailable(t *testing.T) {
	tool := &Tool{Path: "/nonexistent/ddcutil-missing"}
	assert.False(t, tool.Available())

	_, _, err := tool.GetVCP(3, VCPBrightness)
	assert.ErrorIs(t, err, ErrToolUnavailable)

	err = tool.SetVCP(3, VCPBrightness, 50)
	assert.ErrorIs(t, err, ErrToolUnavailable)
}
