// SPDX-FileCopyrightText: 2024 The bs-display-control Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package i2cperm grants the running user access to the I2C character
// devices DDC/CI needs, through a one-time, user-consented polkit
// elevation that installs a persistent group based udev rule.
package i2cperm

import (
	"fmt"
	"os"
	"os/exec"
	"os/user"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/linuxdeepin/go-lib/log"
	"github.com/ncruces/zenity"
	"golang.org/x/xerrors"
)

var logger = log.NewLogger("bsdisplayctl/i2cperm")

// State is the accessibility state machine position.
type State int

const (
	StateUnknown State = iota
	StateChecking
	StateAccessible
	StateNeedsSetup
	StateSetupFailed
)

func (s State) String() string {
	switch s {
	case StateUnknown:
		return "unknown"
	case StateChecking:
		return "checking"
	case StateAccessible:
		return "accessible"
	case StateNeedsSetup:
		return "needs-setup"
	case StateSetupFailed:
		return "setup-failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

var (
	ErrNoDevices        = xerrors.New("i2cperm: no i2c devices present")
	ErrPermissionDenied = xerrors.New("i2cperm: i2c devices not accessible")
	ErrBadUsername      = xerrors.New("i2cperm: resolved username failed validation")
)

// The resolved username ends up inside a privileged shell script, so it
// is validated against the conservative useradd charset first.
var validUsername = regexp.MustCompile(`^[a-z_][a-z0-9_-]{0,31}$`)

const (
	groupName = "i2c"
	udevRule  = `KERNEL=="i2c-[0-9]*", GROUP="i2c", MODE="0660"`
	udevFile  = "/etc/udev/rules.d/99-i2c-permissions.rules"
)

// Manager owns the probe/setup state. All methods are safe for a single
// caller; the attempted flag guarantees at most one elevation prompt
// per process regardless of outcome.
type Manager struct {
	mu        sync.Mutex
	state     State
	attempted bool

	devDir     string
	lookupUser func() (string, error)
	canOpen    func(path string) bool
	runCmd     func(name string, args ...string) error
	askConsent func(username string) bool
}

func NewManager() *Manager {
	return &Manager{
		devDir: "/dev",
		lookupUser: func() (string, error) {
			u, err := user.Current()
			if err != nil {
				return "", err
			}
			return u.Username, nil
		},
		canOpen: func(path string) bool {
			fh, err := os.OpenFile(path, os.O_RDWR, 0)
			if err != nil {
				return false
			}
			fh.Close()
			return true
		},
		runCmd: func(name string, args ...string) error {
			return exec.Command(name, args...).Run()
		},
		askConsent: askConsentDialog,
	}
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// EnsureAccess probes the I2C devices and, at most once per process,
// performs the privileged setup sequence. On ErrPermissionDenied the
// caller falls back to the CLI tool or software gamma tier.
func (m *Manager) EnsureAccess() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.state {
	case StateAccessible:
		return nil
	case StateSetupFailed:
		return ErrPermissionDenied
	}
	m.state = StateChecking

	devices := m.listDevices()
	if len(devices) == 0 {
		// Loading the module is best effort, a retry simply finds no
		// devices again.
		if err := m.runCmd("modprobe", "i2c-dev"); err != nil {
			logger.Debug("modprobe i2c-dev failed:", err)
		}
		devices = m.listDevices()
	}
	if len(devices) == 0 {
		m.state = StateUnknown
		return ErrNoDevices
	}

	if m.probe(devices) {
		m.state = StateAccessible
		return nil
	}

	if m.attempted {
		m.state = StateSetupFailed
		return ErrPermissionDenied
	}
	m.state = StateNeedsSetup
	// Set before the outcome is known so a failed or declined prompt is
	// never repeated.
	m.attempted = true

	if err := m.runSetup(); err != nil {
		logger.Warning("i2c permission setup failed:", err)
		logRemediation()
		m.state = StateSetupFailed
		return xerrors.Errorf("setup: %w", ErrPermissionDenied)
	}

	if m.probe(devices) {
		logger.Info("i2c permissions set up successfully")
		m.state = StateAccessible
		return nil
	}
	logRemediation()
	m.state = StateSetupFailed
	return ErrPermissionDenied
}

func (m *Manager) listDevices() []string {
	entries, err := os.ReadDir(m.devDir)
	if err != nil {
		return nil
	}
	var devices []string
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), "i2c-") {
			devices = append(devices, filepath.Join(m.devDir, entry.Name()))
		}
	}
	return devices
}

func (m *Manager) probe(devices []string) bool {
	for _, dev := range devices {
		if m.canOpen(dev) {
			return true
		}
	}
	return false
}

func (m *Manager) runSetup() error {
	username, err := m.lookupUser()
	if err != nil {
		return xerrors.Errorf("resolve user: %w", err)
	}
	// The name comes from the user database, never the environment, and
	// is still validated before it reaches a privileged script.
	if !validUsername.MatchString(username) {
		return xerrors.Errorf("%q: %w", username, ErrBadUsername)
	}

	if !m.askConsent(username) {
		return xerrors.New("elevation declined")
	}

	script, err := writeSetupScript(setupScript(username))
	if err != nil {
		return err
	}
	defer os.Remove(script)

	if err := m.runCmd("pkexec", script); err != nil {
		return xerrors.Errorf("pkexec: %w", err)
	}
	return nil
}

// setupScript generates the privileged one-shot setup: dedicated group,
// user membership, persistent udev rule, rule reload, and immediate
// permissions on already-existing nodes.
func setupScript(username string) string {
	var sb strings.Builder
	sb.WriteString("#!/bin/sh\nset -e\n")
	sb.WriteString("getent group " + groupName + " >/dev/null || groupadd " + groupName + "\n")
	sb.WriteString("usermod -aG " + groupName + " " + username + "\n")
	sb.WriteString("printf '%s\\n' '" + udevRule + "' > " + udevFile + "\n")
	sb.WriteString("udevadm control --reload-rules 2>/dev/null || true\n")
	sb.WriteString("udevadm trigger --subsystem-match=i2c-dev 2>/dev/null || true\n")
	// group membership only applies at next login, an ACL covers the
	// current session
	sb.WriteString("chgrp " + groupName + " /dev/i2c-* 2>/dev/null || true\n")
	sb.WriteString("chmod 0660 /dev/i2c-* 2>/dev/null || true\n")
	sb.WriteString("command -v setfacl >/dev/null && setfacl -m u:" + username + ":rw /dev/i2c-* 2>/dev/null || true\n")
	return sb.String()
}

func writeSetupScript(content string) (string, error) {
	fh, err := os.CreateTemp("", "bsdisplayctl-i2c-setup-*.sh")
	if err != nil {
		return "", xerrors.Errorf("create setup script: %w", err)
	}
	name := fh.Name()
	if _, err := fh.WriteString(content); err != nil {
		fh.Close()
		os.Remove(name)
		return "", err
	}
	fh.Close()
	if err := os.Chmod(name, 0700); err != nil {
		os.Remove(name)
		return "", err
	}
	return name, nil
}

// askConsentDialog explains the polkit prompt beforehand. Without a
// display server it answers yes and lets pkexec do the asking on the
// terminal.
func askConsentDialog(username string) bool {
	if os.Getenv("DISPLAY") == "" && os.Getenv("WAYLAND_DISPLAY") == "" {
		return true
	}
	err := zenity.Question(
		fmt.Sprintf("External monitor brightness control needs read/write "+
			"access to the I2C devices. Grant the %q group access and add "+
			"user %s to it? You will be asked for your password.", groupName, username),
		zenity.Title("Display brightness setup"),
		zenity.OKLabel("Set up"),
		zenity.CancelLabel("Not now"))
	if err != nil {
		logger.Info("i2c setup consent declined:", err)
		return false
	}
	return true
}

func logRemediation() {
	logger.Warning("i2c devices remain inaccessible; set up manually:")
	logger.Warningf("  sudo groupadd %s; sudo usermod -aG %s $LOGNAME", groupName, groupName)
	logger.Warningf("  echo '%s' | sudo tee %s", udevRule, udevFile)
	logger.Warning("  sudo udevadm control --reload-rules && sudo udevadm trigger")
	logger.Warning("then log out and back in")
}
