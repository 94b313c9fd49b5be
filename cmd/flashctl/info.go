package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/flashkit/flashkit/store"
)

func init() {
	rootCmd.AddCommand(newInfoCmd())
}

func newInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info <image>",
		Short: "Validate image metadata and report identity and geometry",
		Long: `Reads and validates the metadata area of an image without opening the
store, so it works even when no valid root exists.

Example:
  flashctl info media.img
  flashctl info media.img --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfo(args[0])
		},
	}
	return cmd
}

func runInfo(path string) error {
	id, err := store.ProbeImage(path)
	if err != nil {
		return fmt.Errorf("probe image: %w", err)
	}

	if jsonOut {
		return printJSON(id)
	}

	printInfo("Image: %s\n", path)
	if stat, err := os.Stat(path); err == nil {
		printInfo("  File size:    %d bytes\n", stat.Size())
	}
	printInfo("  Format:       version %d\n", id.Version)
	printInfo("  Storage UUID: %s\n", id.UUID)
	printInfo("  Page size:    %d bytes\n", id.Geometry.PageSize)
	printInfo("  Region size:  %d bytes\n", id.Geometry.RegionSize)
	printInfo("  Regions:      %d\n", id.Geometry.RegionCount)
	printInfo("  User data:    %d bytes per region\n",
		id.Geometry.RegionSize-2*id.Geometry.PageSize)
	return nil
}
