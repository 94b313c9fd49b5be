package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/flashkit/flashkit/store"
)

func init() {
	rootCmd.AddCommand(newScanCmd())
}

func newScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan <image>",
		Short: "List every region's header as recovery sees it",
		Long: `Runs the recovery scan and prints one line per region: whether its
header parses, the sequence it carries, and which collection claims it.
Useful for diagnosing ambiguous-root and corrupt-free-list failures.

Example:
  flashctl scan media.img`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(args[0])
		},
	}
	return cmd
}

func runScan(path string) error {
	s, err := store.OpenImage(path, storeOptions()...)
	if err != nil {
		return fmt.Errorf("open image: %w", err)
	}
	defer s.Close()

	infos, err := s.ScanRegions()
	if err != nil {
		return fmt.Errorf("scan regions: %w", err)
	}
	root := s.Root()

	if jsonOut {
		return printJSON(infos)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "REGION\tHEADER\tSEQUENCE\tCOLLECTION\tTYPE\tHEADS\t")
	for _, info := range infos {
		if !info.Valid {
			fmt.Fprintf(w, "%s\tinvalid\t-\t-\t-\t-\t\n", info.Region)
			continue
		}
		marker := ""
		if info.Region == root.Root {
			marker = " *"
		}
		fmt.Fprintf(w, "%s\tvalid%s\t%d\t%d\t%s\t%d\t\n",
			info.Region, marker, info.Sequence, uint64(info.Collection), info.Type, info.HeadCount)
	}
	return w.Flush()
}
