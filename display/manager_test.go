// SPDX-FileCopyrightText: 2024 The bs-display-control Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package display

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/xerrors"
)

type setCall struct {
	id   string
	frac float64
}

type fakeBackend struct {
	displays []*Display
	listErr  error

	getValue float64
	getErr   error

	setErr   error
	setCalls []setCall
	softSets []setCall
}

func (f *fakeBackend) list() ([]*Display, error) {
	return f.displays, f.listErr
}

func (f *fakeBackend) getBrightness(d *Display) (float64, error) {
	return f.getValue, f.getErr
}

func (f *fakeBackend) setBrightness(d *Display, frac float64) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.setCalls = append(f.setCalls, setCall{d.ID, frac})
	return nil
}

func (f *fakeBackend) setSoftwareBrightness(d *Display, factor float64) error {
	f.softSets = append(f.softSets, setCall{d.ID, factor})
	return nil
}

func newTestManager(f *fakeBackend) *Manager {
	return &Manager{backend: f}
}

func TestManagerListDisplays(t *testing.T) {
	f := &fakeBackend{displays: []*Display{
		{ID: BuiltinID, Name: "Built-in Display (intel_backlight)", Brightness: 0.5, IsBuiltIn: true},
		{ID: "drm:card0-DP-1", Name: "DELL U2720Q", Brightness: 0.25},
	}}
	m := newTestManager(f)

	displays := m.ListDisplays()
	require.Len(t, displays, 2)
	assert.Equal(t, BuiltinID, displays[0].ID)
	assert.Equal(t, "drm:card0-DP-1", displays[1].ID)

	// ids from the enumeration stay addressable
	v, err := m.GetBrightness("drm:card0-DP-1")
	require.NoError(t, err)
	assert.Equal(t, f.getValue, v)
}

func TestManagerListDisplaysNeverFails(t *testing.T) {
	f := &fakeBackend{listErr: xerrors.New("no such directory")}
	m := newTestManager(f)
	assert.Empty(t, m.ListDisplays())
}

func TestManagerUnknownID(t *testing.T) {
	f := &fakeBackend{displays: []*Display{{ID: BuiltinID}}}
	m := newTestManager(f)
	m.ListDisplays()

	_, err := m.GetBrightness("drm:card9-FAKE-1")
	assert.ErrorIs(t, err, ErrNotFound)

	err = m.SetBrightness("drm:card9-FAKE-1", 0.5)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, f.setCalls, "unknown id must not reach the backend")
}

func TestManagerSetBrightnessClamps(t *testing.T) {
	f := &fakeBackend{displays: []*Display{{ID: BuiltinID, Brightness: 0.5}}}
	m := newTestManager(f)
	m.ListDisplays()

	require.NoError(t, m.SetBrightness(BuiltinID, 1.7))
	require.NoError(t, m.SetBrightness(BuiltinID, -0.3))
	require.Len(t, f.setCalls, 2)
	assert.Equal(t, 1.0, f.setCalls[0].frac)
	assert.Equal(t, 0.0, f.setCalls[1].frac)

	// the cached entry tracks the applied value
	assert.Equal(t, 0.0, f.displays[0].Brightness)
}

func TestManagerSetBrightnessRejectsNaN(t *testing.T) {
	f := &fakeBackend{displays: []*Display{{ID: BuiltinID}}}
	m := newTestManager(f)
	m.ListDisplays()

	err := m.SetBrightness(BuiltinID, math.NaN())
	assert.ErrorIs(t, err, ErrInvalidArgument)
	err = m.SetBrightness(BuiltinID, math.Inf(1))
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Empty(t, f.setCalls)
}

func TestManagerGetBrightnessDefaultsOnFailure(t *testing.T) {
	f := &fakeBackend{
		displays: []*Display{{ID: "drm:card0-HDMI-A-1"}},
		getErr:   xerrors.New("no reply"),
	}
	m := newTestManager(f)
	m.ListDisplays()

	v, err := m.GetBrightness("drm:card0-HDMI-A-1")
	require.NoError(t, err)
	assert.Equal(t, 1.0, v)
}

func TestManagerSetSoftwareBrightness(t *testing.T) {
	f := &fakeBackend{displays: []*Display{{ID: "drm:card0-DP-1"}}}
	m := newTestManager(f)
	m.ListDisplays()

	require.NoError(t, m.SetSoftwareBrightness("drm:card0-DP-1", 0.8))
	require.Len(t, f.softSets, 1)
	assert.Equal(t, setCall{"drm:card0-DP-1", 0.8}, f.softSets[0])

	err := m.SetSoftwareBrightness("drm:card9-FAKE-1", 0.8)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestManagerRefreshDropsRemoved(t *testing.T) {
	f := &fakeBackend{displays: []*Display{
		{ID: BuiltinID},
		{ID: "drm:card0-DP-1"},
	}}
	m := newTestManager(f)
	m.ListDisplays()

	f.displays = f.displays[:1]
	m.Refresh()

	err := m.SetBrightness("drm:card0-DP-1", 0.5)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = m.GetBrightness(BuiltinID)
	assert.NoError(t, err)
}

func TestTryEachOrder(t *testing.T) {
	var ran []string
	err := tryEach("op", []attempt{
		{"first", func() error { ran = append(ran, "first"); return xerrors.New("nope") }},
		{"second", func() error { ran = append(ran, "second"); return nil }},
		{"third", func() error { ran = append(ran, "third"); return nil }},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, ran, "stop at first success")
}

func TestTryEachAllFail(t *testing.T) {
	err := tryEach("op", []attempt{
		{"first", func() error { return xerrors.New("a") }},
		{"second", func() error { return xerrors.New("b") }},
	})
	assert.ErrorIs(t, err, ErrAllTiersFailed)
	assert.Contains(t, err.Error(), "b")
}

func TestRawFromFraction(t *testing.T) {
	tests := []struct {
		frac float64
		max  int
		want int
	}{
		{0, 100, 0},
		{1, 100, 100},
		{0.5, 100, 50},
		{0.004, 100, 1},  // never rounds a nonzero request to off
		{0.001, 1000, 1},
		{0.5, 65535, 32768},
		{1, 255, 255},
	}
	for _, test := range tests {
		assert.Equal(t, test.want, rawFromFraction(test.frac, test.max),
			"frac=%v max=%d", test.frac, test.max)
	}
}
