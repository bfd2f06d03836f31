// SPDX-FileCopyrightText: 2024 The bs-display-control Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package gamma

import (
	"os"
	"strings"
)

// IsWaylandSession reports whether the process runs under a native
// Wayland session. Only used to pick the dispatch branch, never for
// trust decisions.
func IsWaylandSession() bool {
	if os.Getenv("WAYLAND_DISPLAY") != "" {
		return true
	}
	return strings.Contains(os.Getenv("XDG_SESSION_TYPE"), "wayland")
}
