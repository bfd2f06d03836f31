// SPDX-FileCopyrightText: 2024 The bs-display-control Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestServiceGetInterfaceName(t *testing.T) {
	s := &Service{}
	assert.Equal(t, "com.chandanbsd.BSDisplayControl", s.GetInterfaceName())
}
