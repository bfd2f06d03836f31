// SPDX-FileCopyrightText: 2024 The bs-display-control Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package display

import (
	"time"

	"github.com/chandanbsd/bs-display-control/drm"
	"github.com/fsnotify/fsnotify"
)

// debounce window for connector churn; a dock plug produces a burst of
// sysfs events.
const watchSettle = 500 * time.Millisecond

// Watcher re-enumerates the manager's displays when DRM connectors
// come or go.
type Watcher struct {
	fs   *fsnotify.Watcher
	quit chan struct{}
}

func NewWatcher(m *Manager) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fs.Add(drm.DefaultBasePath); err != nil {
		fs.Close()
		return nil, err
	}
	w := &Watcher{fs: fs, quit: make(chan struct{})}
	go w.loop(m)
	return w, nil
}

func (w *Watcher) loop(m *Manager) {
	var settle *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			logger.Debug("drm event:", ev)
			if settle == nil {
				settle = time.NewTimer(watchSettle)
				fire = settle.C
			} else {
				settle.Reset(watchSettle)
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			logger.Warning("drm watch:", err)
		case <-fire:
			settle = nil
			fire = nil
			m.Refresh()
		case <-w.quit:
			return
		}
	}
}

func (w *Watcher) Close() {
	close(w.quit)
	w.fs.Close()
}
