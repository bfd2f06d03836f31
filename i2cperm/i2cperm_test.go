// SPDX-FileCopyrightText: 2024 The bs-display-control Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package i2cperm

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsernameValidation(t *testing.T) {
	valid := []string{
		"alice", "bob2", "_svc", "web-user", "a",
		"abcdefghijklmnopqrstuvwxyz_01234", // 32 chars
	}
	for _, name := range valid {
		assert.True(t, validUsername.MatchString(name), name)
	}

	invalid := []string{
		"", "Alice", "1user", "-dash", "user name",
		"user;rm -rf /", "user$", "user\n",
		"abcdefghijklmnopqrstuvwxyz_012345", // 33 chars
	}
	for _, name := range invalid {
		assert.False(t, validUsername.MatchString(name), name)
	}
}

func TestSetupScript(t *testing.T) {
	script := setupScript("alice")
	assert.True(t, strings.HasPrefix(script, "#!/bin/sh\n"))
	assert.Contains(t, script, "groupadd i2c")
	assert.Contains(t, script, "usermod -aG i2c alice")
	assert.Contains(t, script, udevFile)
	// group rule, never world-writable
	assert.Contains(t, script, `MODE="0660"`)
	assert.NotContains(t, script, "0666")
}

func newTestManager(t *testing.T, accessible map[string]bool) (*Manager, *[]string) {
	t.Helper()
	devDir := t.TempDir()
	for name := range accessible {
		require.NoError(t, os.WriteFile(filepath.Join(devDir, name), nil, 0600))
	}
	var commands []string
	m := NewManager()
	m.devDir = devDir
	m.lookupUser = func() (string, error) { return "alice", nil }
	m.canOpen = func(path string) bool { return accessible[filepath.Base(path)] }
	m.runCmd = func(name string, args ...string) error {
		commands = append(commands, name)
		return nil
	}
	m.askConsent = func(string) bool { return true }
	return m, &commands
}

func TestEnsureAccessFastPath(t *testing.T) {
	m, commands := newTestManager(t, map[string]bool{"i2c-0": true, "i2c-1": false})

	require.NoError(t, m.EnsureAccess())
	assert.Equal(t, StateAccessible, m.State())
	assert.Empty(t, *commands)

	// idempotent
	require.NoError(t, m.EnsureAccess())
	assert.Equal(t, StateAccessible, m.State())
}

func TestEnsureAccessNoDevices(t *testing.T) {
	m, commands := newTestManager(t, nil)

	err := m.EnsureAccess()
	assert.ErrorIs(t, err, ErrNoDevices)
	// module load was attempted, nothing else
	assert.Equal(t, []string{"modprobe"}, *commands)
	// not a terminal state, a later call may find hotplugged devices
	assert.Equal(t, StateUnknown, m.State())
}

func TestEnsureAccessSetupSucceeds(t *testing.T) {
	access := map[string]bool{"i2c-0": false}
	m, commands := newTestManager(t, access)
	m.runCmd = func(name string, args ...string) error {
		*commands = append(*commands, name)
		if name == "pkexec" {
			// privileged script fixed the permissions
			access["i2c-0"] = true
			require.Len(t, args, 1)
			content, err := os.ReadFile(args[0])
			require.NoError(t, err)
			assert.Contains(t, string(content), "usermod -aG i2c alice")
		}
		return nil
	}

	require.NoError(t, m.EnsureAccess())
	assert.Equal(t, StateAccessible, m.State())
	assert.Contains(t, *commands, "pkexec")
}

func TestEnsureAccessConsentDeclined(t *testing.T) {
	m, commands := newTestManager(t, map[string]bool{"i2c-0": false})
	asked := 0
	m.askConsent = func(string) bool {
		asked++
		return false
	}

	err := m.EnsureAccess()
	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.Equal(t, StateSetupFailed, m.State())
	assert.NotContains(t, *commands, "pkexec")

	// the prompt must never repeat within one process
	err = m.EnsureAccess()
	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.Equal(t, 1, asked)
}

func TestEnsureAccessBadUsername(t *testing.T) {
	m, commands := newTestManager(t, map[string]bool{"i2c-0": false})
	m.lookupUser = func() (string, error) { return "alice;rm -rf /", nil }

	err := m.EnsureAccess()
	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.Equal(t, StateSetupFailed, m.State())
	assert.NotContains(t, *commands, "pkexec")
}
