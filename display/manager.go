// SPDX-FileCopyrightText: 2024 The bs-display-control Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package display

import (
	"sync"

	"github.com/chandanbsd/bs-display-control/config"
	"golang.org/x/xerrors"
)

// backend is the platform half of the manager. list returns a fresh
// enumeration; the per-display operations receive entries from the
// most recent list.
type backend interface {
	list() ([]*Display, error)
	getBrightness(d *Display) (float64, error)
	setBrightness(d *Display, frac float64) error
	setSoftwareBrightness(d *Display, factor float64) error
}

// Manager enumerates displays and dispatches brightness operations.
// Set calls resolve their id against the most recent enumeration, so
// callers list first and re-list after hotplug.
type Manager struct {
	backend backend

	mu       sync.Mutex
	displays map[string]*Display
}

func NewManager(cfg *config.Config) *Manager {
	return &Manager{backend: newBackend(cfg)}
}

// ListDisplays enumerates all controllable displays. It never fails:
// enumeration errors degrade to an empty list.
func (m *Manager) ListDisplays() []*Display {
	displays, err := m.backend.list()
	if err != nil {
		logger.Warning("enumerate displays:", err)
		displays = nil
	}
	byID := make(map[string]*Display, len(displays))
	for _, d := range displays {
		byID[d.ID] = d
	}
	m.mu.Lock()
	m.displays = byID
	m.mu.Unlock()
	return displays
}

// Refresh re-enumerates in place, keeping ids valid across hotplug.
func (m *Manager) Refresh() {
	m.ListDisplays()
}

func (m *Manager) lookup(id string) (*Display, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.displays[id]
	if !ok {
		return nil, xerrors.Errorf("%q: %w", id, ErrNotFound)
	}
	return d, nil
}

// GetBrightness reads the current brightness of the display as a
// fraction. Reads that cannot be satisfied by any mechanism report 1.0.
func (m *Manager) GetBrightness(id string) (float64, error) {
	d, err := m.lookup(id)
	if err != nil {
		return 0, err
	}
	value, err := m.backend.getBrightness(d)
	if err != nil {
		logger.Debugf("get brightness %s: %v", id, err)
		return 1.0, nil
	}
	return value, nil
}

// SetBrightness applies frac to the display through the first working
// control mechanism. Out of range values are clamped.
func (m *Manager) SetBrightness(id string, frac float64) error {
	if err := validateFraction(frac); err != nil {
		return err
	}
	frac = clampFraction(frac)
	d, err := m.lookup(id)
	if err != nil {
		return err
	}
	if err := m.backend.setBrightness(d, frac); err != nil {
		return err
	}
	m.mu.Lock()
	d.Brightness = frac
	m.mu.Unlock()
	return nil
}

// SetSoftwareBrightness dims via gamma tables only, bypassing hardware
// mechanisms. Useful for displays whose hardware path is absent.
func (m *Manager) SetSoftwareBrightness(id string, factor float64) error {
	if err := validateFraction(factor); err != nil {
		return err
	}
	factor = clampFraction(factor)
	d, err := m.lookup(id)
	if err != nil {
		return err
	}
	return m.backend.setSoftwareBrightness(d, factor)
}
