package cmd

import (
	"fmt"

	"github.com/iksnae/clog/internal"
	"github.com/spf13/cobra"
)

// deviceCmd prints the stable machine identity clog caches on first use.
var deviceCmd = &cobra.Command{
	Use:   "device",
	Short: "Print this machine's stable device identifier",
	Long: `Print the opaque device identifier derived from this machine's
platform id. The id is generated once and cached under ~/.clog/device_id.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := internal.DeviceID()
		if err != nil {
			return fmt.Errorf("failed to resolve device id: %w", err)
		}
		fmt.Println(id)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deviceCmd)
}
