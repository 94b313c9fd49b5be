package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/flashkit/flashkit/store"
	"github.com/flashkit/flashkit/store/verify"
)

func init() {
	rootCmd.AddCommand(newVerifyCmd())
}

func newVerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify <image>",
		Short: "Check root, head directory, and free-list invariants",
		Long: `Opens the image and validates the recovered state: the root snapshot's
shape, every collection head's claim, and the full free-list chain with
its link hashes.

Example:
  flashctl verify media.img`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(args[0])
		},
	}
	return cmd
}

func runVerify(path string) error {
	s, err := store.OpenImage(path, storeOptions()...)
	if err != nil {
		return fmt.Errorf("open image: %w", err)
	}
	defer s.Close()

	printVerbose("Recovered root at sequence %d in region %s\n",
		s.Root().Sequence, s.Root().Root)

	if err := verify.Store(s); err != nil {
		var verr *verify.ValidationError
		if errors.As(err, &verr) {
			return fmt.Errorf("invariant violated (%s): %s", verr.Check, verr.Message)
		}
		return err
	}

	chain, err := s.FreeRegions()
	if err != nil {
		return err
	}
	printInfo("OK: %d regions, %d free, %d collections\n",
		s.Geometry().RegionCount, len(chain), len(s.Root().Heads))
	return nil
}
