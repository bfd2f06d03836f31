// SPDX-FileCopyrightText: 2024 The bs-display-control Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"github.com/chandanbsd/bs-display-control/service"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Export the display manager on the session bus",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := service.New(newManager())
		if err != nil {
			return err
		}
		return s.Run()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
