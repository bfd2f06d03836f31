// SPDX-FileCopyrightText: 2024 The bs-display-control Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package edid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// synthEdid builds a 128-byte base block with the given manufacturer
// code words and an optional name descriptor at offset 54.
func synthEdid(mfrHi, mfrLo byte, name string) []byte {
	buf := make([]byte, 128)
	buf[8] = mfrHi
	buf[9] = mfrLo
	if name != "" {
		// descriptor header: 00 00 00 FC 00
		buf[54+3] = 0xfc
		copy(buf[54+5:54+18], name)
	}
	return buf
}

func TestParseMonitorName(t *testing.T) {
	testdata := []struct {
		name string
		edid []byte
		want string
	}{
		{
			name: "name descriptor at offset 54",
			edid: synthEdid(0x10, 0xac, "DELL U2412M\n"),
			want: "DELL U2412M",
		},
		{
			name: "trailing spaces stripped",
			edid: synthEdid(0x10, 0xac, "PA278QV    \n"),
			want: "PA278QV",
		},
		{
			name: "nul terminated",
			edid: synthEdid(0x10, 0xac, "LG HDR 4K\x00xx"),
			want: "LG HDR 4K",
		},
		{
			name: "no descriptor",
			edid: synthEdid(0x10, 0xac, ""),
			want: "",
		},
	}
	for _, tc := range testdata {
		name, err := ParseMonitorName(tc.edid)
		assert.NoError(t, err, tc.name)
		assert.Equal(t, tc.want, name, tc.name)
	}
}

func TestParseMonitorNameShort(t *testing.T) {
	_, err := ParseMonitorName(make([]byte, 127))
	assert.ErrorIs(t, err, ErrTooShort)

	_, err = ParseMonitorName(nil)
	assert.ErrorIs(t, err, ErrTooShort)
}

func TestParseManufacturer(t *testing.T) {
	// 0x10ac -> 00100 00110 01100 -> D E L
	assert.Equal(t, "DEL", ParseManufacturer(synthEdid(0x10, 0xac, "")))
	// 0x4c2d -> 10011 00001 01101 -> S A M
	assert.Equal(t, "SAM", ParseManufacturer(synthEdid(0x4c, 0x2d, "")))
	// short blob
	assert.Equal(t, "", ParseManufacturer([]byte{0, 1, 2}))
	// value outside A-Z (five zero bits maps below 'A')
	assert.Equal(t, "", ParseManufacturer(synthEdid(0x00, 0x00, "")))
	// valid code words in a truncated base block still decode to nothing
	assert.Equal(t, "", ParseManufacturer(synthEdid(0x10, 0xac, "")[:64]))
}

func TestParseNameFallback(t *testing.T) {
	// valid descriptor wins
	assert.Equal(t, "DELL U2412M", ParseName(synthEdid(0x10, 0xac, "DELL U2412M\n")))
	// no descriptor falls back to manufacturer code
	assert.Equal(t, "DEL", ParseName(synthEdid(0x10, 0xac, "")))
	// truncated blob yields empty, caller substitutes the OS name
	assert.Equal(t, "", ParseName([]byte{1, 2, 3}))
	assert.Equal(t, "", ParseName(synthEdid(0x10, 0xac, "")[:64]))
}
