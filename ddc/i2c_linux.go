// SPDX-FileCopyrightText: 2024 The bs-display-control Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package ddc

import (
	"fmt"
	"time"

	"golang.org/x/sys/unix"
	"golang.org/x/xerrors"
)

// ioctl request to bind the slave address on an open bus fd
const i2cSlave = 0x0703

// replyDelay is the response latency the DDC/CI spec grants the monitor
// between request and reply.
const replyDelay = 50 * time.Millisecond

func busDevice(bus int) string {
	return fmt.Sprintf("/dev/i2c-%d", bus)
}

// GetVCP reads a VCP feature over the given I2C bus and returns the raw
// current and maximum values reported by the monitor. Conversion to a
// fraction is up to the caller.
func GetVCP(bus int, code byte) (current, max int, err error) {
	fd, err := unix.Open(busDevice(bus), unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return 0, 0, xerrors.Errorf("open %s: %w", busDevice(bus), err)
	}
	defer unix.Close(fd)

	if err := unix.IoctlSetInt(fd, i2cSlave, SlaveAddr); err != nil {
		return 0, 0, xerrors.Errorf("bind slave %#x: %w", SlaveAddr, err)
	}

	req := getVCPRequest(code)
	n, err := unix.Write(fd, req)
	if err != nil {
		return 0, 0, xerrors.Errorf("write request: %w", err)
	}
	if n != len(req) {
		return 0, 0, xerrors.Errorf("short write %d/%d: %w", n, len(req), ErrNoReply)
	}

	time.Sleep(replyDelay)

	buf := make([]byte, 12)
	n, err = unix.Read(fd, buf)
	if err != nil {
		return 0, 0, xerrors.Errorf("read reply: %w", err)
	}
	return parseVCPReply(buf[:n], code)
}

// SetVCP writes a VCP feature value over the given I2C bus. DDC/CI set
// operations carry no reply, success means the full frame was written,
// not that the monitor applied it. Callers needing confirmation must
// issue a follow-up GetVCP.
func SetVCP(bus int, code byte, value int) error {
	fd, err := unix.Open(busDevice(bus), unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return xerrors.Errorf("open %s: %w", busDevice(bus), err)
	}
	defer unix.Close(fd)

	if err := unix.IoctlSetInt(fd, i2cSlave, SlaveAddr); err != nil {
		return xerrors.Errorf("bind slave %#x: %w", SlaveAddr, err)
	}

	req := setVCPRequest(code, value)
	n, err := unix.Write(fd, req)
	if err != nil {
		return xerrors.Errorf("write request: %w", err)
	}
	if n != len(req) {
		return xerrors.Errorf("short write %d/%d: %w", n, len(req), ErrNoReply)
	}
	return nil
}
