package commands

import (
	"github.com/spf13/cobra"

	"github.com/haivivi/echoprint/go/pkg/audio/portaudio"
)

// listDevices is overridden in tests.
var listDevices = portaudio.InputDevices

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List audio input devices",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		devices, err := listDevices()
		if err != nil {
			return err
		}
		if len(devices) == 0 {
			status(cmd).Warning("no input devices found")
			return nil
		}
		return printResult(cmd, devices)
	},
}

func init() {
	rootCmd.AddCommand(devicesCmd)
}
