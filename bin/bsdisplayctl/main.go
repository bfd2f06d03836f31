// SPDX-FileCopyrightText: 2024 The bs-display-control Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/chandanbsd/bs-display-control/config"
	"github.com/chandanbsd/bs-display-control/display"
	"github.com/linuxdeepin/go-lib/log"
	"github.com/spf13/cobra"
)

var logger = log.NewLogger("bsdisplayctl")

var optVerbose bool

var rootCmd = &cobra.Command{
	Use:           "bsdisplayctl",
	Short:         "Control display brightness over backlight, DDC/CI and gamma",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if optVerbose {
			logger.SetLogLevel(log.LevelDebug)
		}
	},
}

func newManager() *display.Manager {
	return display.NewManager(config.Load())
}

func parseFraction(arg string) (float64, error) {
	v, err := strconv.ParseFloat(arg, 64)
	if err != nil {
		return 0, fmt.Errorf("brightness %q is not a number", arg)
	}
	return v, nil
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List controllable displays as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		displays := newManager().ListDisplays()
		if displays == nil {
			displays = []*display.Display{}
		}
		blob, err := json.MarshalIndent(displays, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(blob))
		return nil
	},
}

var getCmd = &cobra.Command{
	Use:   "get <display-id>",
	Short: "Print the brightness of one display as a fraction",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m := newManager()
		m.ListDisplays()
		v, err := m.GetBrightness(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("%.4f\n", v)
		return nil
	},
}

var setCmd = &cobra.Command{
	Use:   "set <display-id> <brightness>",
	Short: "Set brightness, 0.0 to 1.0",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := parseFraction(args[1])
		if err != nil {
			return err
		}
		m := newManager()
		m.ListDisplays()
		return m.SetBrightness(args[0], v)
	},
}

var setGammaCmd = &cobra.Command{
	Use:   "set-gamma <display-id> <factor>",
	Short: "Dim via gamma tables only, 0.0 to 1.0",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := parseFraction(args[1])
		if err != nil {
			return err
		}
		m := newManager()
		m.ListDisplays()
		return m.SetSoftwareBrightness(args[0], v)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&optVerbose, "verbose", "v", false,
		"enable debug logging")
	rootCmd.AddCommand(listCmd, getCmd, setCmd, setGammaCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
