// SPDX-FileCopyrightText: 2024 The bs-display-control Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package ddc speaks the DDC/CI protocol to external monitors, either
// directly over an I2C bus or through the ddcutil command line tool.
package ddc

import (
	"golang.org/x/xerrors"

	"github.com/linuxdeepin/go-lib/log"
)

var logger = log.NewLogger("bsdisplayctl/ddc")

const (
	// SlaveAddr is the I2C slave address monitors listen on for DDC/CI.
	SlaveAddr = 0x37
	// srcAddr is the host source address folded into every checksum.
	srcAddr = 0x6e

	// VCPBrightness is the VCP feature code for luminance.
	VCPBrightness = 0x10

	replyOpcode = 0x02
)

var (
	ErrNoReply  = xerrors.New("ddc: no reply from monitor")
	ErrProtocol = xerrors.New("ddc: malformed reply")
)

// Checksum XOR-folds the source address with every frame byte.
func Checksum(src byte, frame []byte) byte {
	ck := src
	for _, b := range frame {
		ck ^= b
	}
	return ck
}

// getVCPRequest builds the "Get VCP Feature" frame for a feature code.
func getVCPRequest(code byte) []byte {
	frame := []byte{0x51, 0x82, 0x01, code, 0}
	frame[4] = Checksum(srcAddr, frame[:4])
	return frame
}

// setVCPRequest builds the "Set VCP Feature" frame. The value is sent
// big endian.
func setVCPRequest(code byte, value int) []byte {
	frame := []byte{0x51, 0x84, 0x03, code, byte(value >> 8), byte(value), 0}
	frame[6] = Checksum(srcAddr, frame[:6])
	return frame
}

// parseVCPReply scans a raw reply buffer for the feature reply opcode
// followed by the expected feature code and extracts the 16-bit maximum
// and current values. Reply layout after the opcode:
//
//	[result] [vcp code] [type] [max hi] [max lo] [cur hi] [cur lo]
func parseVCPReply(buf []byte, code byte) (current, max int, err error) {
	if len(buf) < 9 {
		return 0, 0, ErrNoReply
	}
	for i := 0; i <= len(buf)-8; i++ {
		if buf[i] != replyOpcode || buf[i+2] != code {
			continue
		}
		if buf[i+1] != 0 {
			return 0, 0, xerrors.Errorf("result code %#x: %w", buf[i+1], ErrProtocol)
		}
		max = int(buf[i+4])<<8 | int(buf[i+5])
		current = int(buf[i+6])<<8 | int(buf[i+7])
		if max <= 0 {
			return 0, 0, xerrors.Errorf("max value %d: %w", max, ErrProtocol)
		}
		return current, max, nil
	}
	return 0, 0, xerrors.Errorf("opcode %#x not found: %w", replyOpcode, ErrProtocol)
}
