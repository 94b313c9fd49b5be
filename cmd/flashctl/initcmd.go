package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/flashkit/flashkit/medium"
	"github.com/flashkit/flashkit/store"
)

func init() {
	rootCmd.AddCommand(newInitCmd())
}

func newInitCmd() *cobra.Command {
	var (
		pageSize    uint32
		regionSize  uint32
		regionCount uint32
		force       bool
	)
	cmd := &cobra.Command{
		Use:   "init <image>",
		Short: "Create and format a region store image",
		Long: `Creates an image file of the requested geometry and formats it: metadata
area, an initial root header, and every other region chained onto the
free list.

With --force an existing image is wiped and reformatted in place.

Example:
  flashctl init --page-size 4096 --region-size 262144 --regions 64 media.img`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			geo := medium.Geometry{
				PageSize:    pageSize,
				RegionSize:  regionSize,
				RegionCount: regionCount,
			}
			return runInit(args[0], geo, force)
		},
	}
	cmd.Flags().Uint32Var(&pageSize, "page-size", 4096, "Page size in bytes (power of two)")
	cmd.Flags().Uint32Var(&regionSize, "region-size", 262144, "Region size in bytes (power of two, multiple of page size)")
	cmd.Flags().Uint32Var(&regionCount, "regions", 64, "Number of regions")
	cmd.Flags().BoolVar(&force, "force", false, "Reformat an already-initialized image")
	return cmd
}

func runInit(path string, geo medium.Geometry, force bool) error {
	opts := storeOptions()
	if force {
		opts = append(opts, store.WithForce())
		m, err := medium.OpenFile(path, geo)
		if err != nil {
			return fmt.Errorf("open image: %w", err)
		}
		if err := store.Init(m, opts...); err != nil {
			m.Close()
			return fmt.Errorf("format image: %w", err)
		}
		if err := m.Close(); err != nil {
			return err
		}
	} else {
		if err := store.CreateImage(path, geo, opts...); err != nil {
			return fmt.Errorf("create image: %w", err)
		}
	}

	printInfo("Initialized %s: %d regions of %d bytes, %d-byte pages (%d bytes total)\n",
		path, geo.RegionCount, geo.RegionSize, geo.PageSize, geo.TotalSize())
	return nil
}
