package cli

import (
	"io"
	"time"

	"github.com/urfave/cli/v2"
)

const (
	// Flags.
	generalFlagConfig  = "config"
	generalFlagDebug   = "debug"
	generalFlagLogFile = "log-file"

	driveFlagSimulate = "simulate"
	driveFlagConnect  = "connect"
)

const defaultReadHeaderTimeout = 5 * time.Second

// NewApp returns the benben CLI with Writer set to out and ErrWriter set to errOut.
func NewApp(out, errOut io.Writer) *cli.App {
	return &cli.App{
		Name:            "benben",
		Usage:           "drive a four-motor BLE vehicle",
		HideHelpCommand: true,
		Writer:          out,
		ErrWriter:       errOut,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    generalFlagConfig,
				Aliases: []string{"c"},
				Usage:   "load configuration from `FILE`",
			},
			&cli.BoolFlag{
				Name:    generalFlagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
			&cli.StringFlag{
				Name:  generalFlagLogFile,
				Usage: "also write logs to `FILE`, rotated",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "drive",
				Usage: "drive the vehicle from the keyboard, a gamepad and the web page",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  driveFlagSimulate,
						Usage: "drive a simulated vehicle instead of the configured transport",
					},
					&cli.BoolFlag{
						Name:  driveFlagConnect,
						Usage: "connect to the vehicle at start",
					},
				},
				Action: DriveAction,
			},
			{
				Name:      "frame",
				Usage:     "print the command frame for four motor values",
				ArgsUsage: "<a> <b> <c> <d>",
				Action:    FrameAction,
			},
			{
				Name:      "mix",
				Usage:     "print the motor values for a stick position",
				ArgsUsage: "<x> <y> <rotation>",
				Action:    MixAction,
			},
			{
				Name:      "decode",
				Usage:     "decode and validate a captured command frame",
				ArgsUsage: "<hex>",
				Action:    DecodeAction,
			},
		},
	}
}
