// SPDX-FileCopyrightText: 2024 The bs-display-control Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package backlight

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDevice(t *testing.T, base, name string, brightness, max string) {
	t.Helper()
	dir := filepath.Join(base, name)
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "brightness"), []byte(brightness), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "max_brightness"), []byte(max), 0644))
}

func TestFindInPrefersKnownDrivers(t *testing.T) {
	base := t.TempDir()
	writeDevice(t, base, "zz_vendor_bl", "10", "100")
	writeDevice(t, base, "intel_backlight", "200", "400")

	dev, err := FindIn(base)
	require.NoError(t, err)
	assert.Equal(t, "intel_backlight", dev.Name)
}

func TestFindInFallsBackToFirstEntry(t *testing.T) {
	base := t.TempDir()
	writeDevice(t, base, "zz_vendor_bl", "10", "100")

	dev, err := FindIn(base)
	require.NoError(t, err)
	assert.Equal(t, "zz_vendor_bl", dev.Name)
}

func TestFindInEmpty(t *testing.T) {
	_, err := FindIn(t.TempDir())
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = FindIn(filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBrightness(t *testing.T) {
	base := t.TempDir()
	writeDevice(t, base, "intel_backlight", "120\n", "480\n")

	dev, err := FindIn(base)
	require.NoError(t, err)

	v, err := dev.Brightness()
	require.NoError(t, err)
	assert.InDelta(t, 0.25, v, 1e-9)
}

func TestBrightnessBrokenDriverDefaultsToFull(t *testing.T) {
	base := t.TempDir()
	dir := filepath.Join(base, "intel_backlight")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "max_brightness"), []byte("garbage"), 0644))

	dev, err := FindIn(base)
	require.NoError(t, err)

	v, err := dev.Brightness()
	assert.Error(t, err)
	assert.Equal(t, 1.0, v)
}

func TestSetBrightness(t *testing.T) {
	base := t.TempDir()
	writeDevice(t, base, "intel_backlight", "100", "400")

	dev, err := FindIn(base)
	require.NoError(t, err)

	require.NoError(t, dev.SetBrightness(0.5))
	content, err := os.ReadFile(filepath.Join(base, "intel_backlight", "brightness"))
	require.NoError(t, err)
	assert.Equal(t, "200", string(content))
}

func TestSetBrightnessFloorAndClamp(t *testing.T) {
	base := t.TempDir()
	writeDevice(t, base, "intel_backlight", "100", "400")
	dev, err := FindIn(base)
	require.NoError(t, err)

	// a tiny non-zero fraction must not turn the panel off
	require.NoError(t, dev.SetBrightness(0.001))
	content, _ := os.ReadFile(filepath.Join(base, "intel_backlight", "brightness"))
	assert.Equal(t, "1", string(content))

	// zero is allowed to write zero
	require.NoError(t, dev.SetBrightness(0))
	content, _ = os.ReadFile(filepath.Join(base, "intel_backlight", "brightness"))
	assert.Equal(t, "0", string(content))

	// out of range input is clamped
	require.NoError(t, dev.SetBrightness(3.5))
	content, _ = os.ReadFile(filepath.Join(base, "intel_backlight", "brightness"))
	assert.Equal(t, "400", string(content))
}
