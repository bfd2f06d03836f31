// SPDX-FileCopyrightText: 2024 The bs-display-control Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package gamma

import (
	x "github.com/linuxdeepin/go-x11-client"
	"github.com/linuxdeepin/go-x11-client/ext/randr"
	"golang.org/x/xerrors"
)

// XClient applies gamma directly through the RandR extension when an X
// server is reachable.
type XClient struct {
	conn *x.Conn
}

func NewXClient() (*XClient, error) {
	conn, err := x.NewConn()
	if err != nil {
		return nil, xerrors.Errorf("connect X: %w", err)
	}
	return &XClient{conn: conn}, nil
}

func (c *XClient) Close() {
	c.conn.Close()
}

// SetOutputGamma finds the output by name and scales its CRTC gamma
// table by factor.
func (c *XClient) SetOutputGamma(outputName string, factor float64) error {
	root := c.conn.GetDefaultScreen().Root
	resources, err := randr.GetScreenResourcesCurrent(c.conn, root).Reply(c.conn)
	if err != nil {
		return xerrors.Errorf("get screen resources: %w", err)
	}

	for _, output := range resources.Outputs {
		outputInfo, err := randr.GetOutputInfo(c.conn, output, x.CurrentTime).Reply(c.conn)
		if err != nil {
			logger.Warning("get output info:", err)
			continue
		}
		if outputInfo.Name != outputName {
			continue
		}
		if outputInfo.Crtc == 0 || outputInfo.Connection != randr.ConnectionConnected {
			return xerrors.Errorf("gamma: output %s has no crtc or is disconnected", outputName)
		}

		sizeReply, err := randr.GetCrtcGammaSize(c.conn, outputInfo.Crtc).Reply(c.conn)
		if err != nil {
			return xerrors.Errorf("get gamma size: %w", err)
		}
		if sizeReply.Size == 0 {
			return xerrors.Errorf("gamma: output %s has invalid gamma size", outputName)
		}

		ramp := Ramp(int(sizeReply.Size), factor)
		return randr.SetCrtcGammaChecked(c.conn, outputInfo.Crtc, ramp, ramp, ramp).Check(c.conn)
	}
	return xerrors.Errorf("%s: %w", outputName, ErrOutputNotFound)
}
