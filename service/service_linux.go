// SPDX-FileCopyrightText: 2024 The bs-display-control Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package service exports the display manager on the session bus.
package service

import (
	"encoding/json"

	"github.com/chandanbsd/bs-display-control/display"
	dbus "github.com/godbus/dbus/v5"
	"github.com/linuxdeepin/go-lib/dbusutil"
	"github.com/linuxdeepin/go-lib/log"
	"golang.org/x/xerrors"
)

const (
	dbusServiceName = "com.chandanbsd.BSDisplayControl"
	dbusPath        = "/com/chandanbsd/BSDisplayControl"
	dbusInterface   = dbusServiceName
)

var logger = log.NewLogger("bsdisplayctl/service")

type Service struct {
	service *dbusutil.Service
	manager *display.Manager
}

func New(m *display.Manager) (*Service, error) {
	sessionService, err := dbusutil.NewSessionService()
	if err != nil {
		return nil, err
	}
	return &Service{service: sessionService, manager: m}, nil
}

func (*Service) GetInterfaceName() string {
	return dbusInterface
}

// Run exports the service and blocks until the bus connection drops.
func (s *Service) Run() error {
	err := s.service.Export(dbusPath, s)
	if err != nil {
		return xerrors.Errorf("export %s: %w", dbusPath, err)
	}
	err = s.service.RequestName(dbusServiceName)
	if err != nil {
		return xerrors.Errorf("request %s: %w", dbusServiceName, err)
	}

	s.manager.ListDisplays()
	watcher, err := display.NewWatcher(s.manager)
	if err != nil {
		logger.Warning("hotplug watching disabled:", err)
	} else {
		defer watcher.Close()
	}

	s.service.Wait()
	return nil
}

// ListDisplays returns the current displays as a JSON array.
func (s *Service) ListDisplays() (displaysJSON string, busErr *dbus.Error) {
	displays := s.manager.ListDisplays()
	if displays == nil {
		displays = []*display.Display{}
	}
	blob, err := json.Marshal(displays)
	if err != nil {
		return "", dbusutil.ToError(err)
	}
	return string(blob), nil
}

func (s *Service) GetBrightness(id string) (brightness float64, busErr *dbus.Error) {
	value, err := s.manager.GetBrightness(id)
	if err != nil {
		return 0, dbusutil.ToError(err)
	}
	return value, nil
}

// SetBrightness reports whether any mechanism applied the value.
// Malformed arguments raise a bus error instead.
func (s *Service) SetBrightness(id string, brightness float64) (ok bool, busErr *dbus.Error) {
	err := s.manager.SetBrightness(id, brightness)
	if err != nil {
		if xerrors.Is(err, display.ErrInvalidArgument) {
			return false, dbusutil.ToError(err)
		}
		logger.Warning("set brightness:", err)
		return false, nil
	}
	return true, nil
}

func (s *Service) SetSoftwareBrightness(id string, factor float64) (ok bool, busErr *dbus.Error) {
	err := s.manager.SetSoftwareBrightness(id, factor)
	if err != nil {
		if xerrors.Is(err, display.ErrInvalidArgument) {
			return false, dbusutil.ToError(err)
		}
		logger.Warning("set software brightness:", err)
		return false, nil
	}
	return true, nil
}
