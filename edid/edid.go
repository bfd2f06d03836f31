// SPDX-FileCopyrightText: 2024 The bs-display-control Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package edid decodes the identity fields of raw EDID blobs.
package edid

import (
	"strings"

	"golang.org/x/xerrors"
)

// MinLength is the size of the EDID base block. Shorter blobs are rejected.
const MinLength = 128

// descriptor blocks live at fixed offsets in the base block, 18 bytes each
var descriptorOffsets = [4]int{54, 72, 90, 108}

const (
	descriptorLen  = 18
	tagMonitorName = 0xfc
)

var ErrTooShort = xerrors.New("edid: blob shorter than 128 bytes")

// ParseManufacturer decodes the PNP manufacturer code from bytes 8-9,
// three 5-bit values mapped onto 'A'..'Z'. Blobs shorter than the base
// block are rejected outright, as is any value outside the letter range.
func ParseManufacturer(edid []byte) string {
	if len(edid) < MinLength {
		return ""
	}
	code := uint16(edid[8])<<8 | uint16(edid[9])
	var buf [3]byte
	for i := 0; i < 3; i++ {
		c := byte((code>>(10-5*i))&0x1f) + 64
		if c < 'A' || c > 'Z' {
			return ""
		}
		buf[i] = c
	}
	return string(buf[:])
}

// ParseMonitorName scans the four descriptor blocks for the monitor name
// descriptor (tag 0xFC) and returns its ASCII payload with trailing
// spaces stripped, or "" if no such descriptor exists.
func ParseMonitorName(edid []byte) (string, error) {
	if len(edid) < MinLength {
		return "", ErrTooShort
	}
	for _, off := range descriptorOffsets {
		if off+descriptorLen > len(edid) {
			break
		}
		if edid[off] != 0 || edid[off+1] != 0 || edid[off+3] != tagMonitorName {
			continue
		}
		var sb strings.Builder
		for i := 5; i < descriptorLen; i++ {
			c := edid[off+i]
			if c == '\n' || c == 0 {
				break
			}
			sb.WriteByte(c)
		}
		return strings.TrimRight(sb.String(), " "), nil
	}
	return "", nil
}

// ParseName returns the best human-readable name for the monitor: the
// name descriptor if present and non-empty, else the manufacturer code,
// else "". Malformed input never panics, the caller substitutes the OS
// device name for an empty result.
func ParseName(edid []byte) string {
	name, err := ParseMonitorName(edid)
	if err == nil && name != "" {
		return name
	}
	return ParseManufacturer(edid)
}
