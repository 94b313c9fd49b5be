package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"

	"github.com/flashkit/flashkit/store"
)

func init() {
	rootCmd.AddCommand(newRootDumpCmd())
}

func newRootDumpCmd() *cobra.Command {
	var dump bool
	cmd := &cobra.Command{
		Use:   "root <image>",
		Short: "Recover and display the authoritative root snapshot",
		Long: `Opens the image, runs root recovery, and prints the winning snapshot:
sequence, authoritative region, free-list boundaries, and the collection
head directory.

Example:
  flashctl root media.img
  flashctl root media.img --dump`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRootDump(args[0], dump)
		},
	}
	cmd.Flags().BoolVar(&dump, "dump", false, "Dump the raw snapshot structure")
	return cmd
}

func runRootDump(path string, dump bool) error {
	s, err := store.OpenImage(path, storeOptions()...)
	if err != nil {
		return fmt.Errorf("open image: %w", err)
	}
	defer s.Close()

	root := s.Root()
	if jsonOut {
		return printJSON(rootView(root))
	}
	if dump {
		spew.Fdump(os.Stdout, root)
		return nil
	}

	printInfo("Root snapshot of %s:\n", path)
	printInfo("  Sequence:     %d\n", root.Sequence)
	printInfo("  Root region:  %s\n", root.Root)
	printInfo("  Free head:    %s\n", root.FreeHead)
	printInfo("  Free tail:    %s\n", root.FreeTail)
	printInfo("  Collections:  %d\n", len(root.Heads))
	for _, id := range sortedCollections(root) {
		printInfo("    %d -> region %s\n", uint64(id), root.Heads[id])
	}
	return nil
}

func sortedCollections(root store.RootSnapshot) []store.CollectionID {
	ids := make([]store.CollectionID, 0, len(root.Heads))
	for id := range root.Heads {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func rootView(root store.RootSnapshot) map[string]any {
	heads := make(map[string]string, len(root.Heads))
	for id, r := range root.Heads {
		heads[fmt.Sprintf("%d", uint64(id))] = r.String()
	}
	return map[string]any{
		"sequence":  root.Sequence,
		"root":      root.Root.String(),
		"free_head": root.FreeHead.String(),
		"free_tail": root.FreeTail.String(),
		"heads":     heads,
	}
}
