package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/netcore/pkg/netlist"
	"github.com/OpenTraceLab/netcore/pkg/undo"
)

var blockOutput string

var blockCmd = &cobra.Command{
	Use:   "block",
	Short: "Saved block operations",
	Long:  `Commands for working with blocks saved as JSON`,
}

var blockVacuumCmd = &cobra.Command{
	Use:   "vacuum <block_file>",
	Short: "Remove unused nets from a saved block",
	Long: `Load a saved block, delete every net that no pin or bus member uses and
write the block back. Power nets are kept. Without -o the result goes to
stdout.

Library entities are not resolved, so the block is written with the same
entity and part ids it was read with.`,
	Args: cobra.ExactArgs(1),
	RunE: runBlockVacuum,
}

func init() {
	rootCmd.AddCommand(blockCmd)
	blockCmd.AddCommand(blockVacuumCmd)

	blockVacuumCmd.Flags().StringVarP(&blockOutput, "output", "o", "", "write to file instead of stdout")
}

func runBlockVacuum(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("error reading block: %w", err)
	}
	b, err := netlist.Load(data, nil)
	if err != nil {
		return err
	}

	h := undo.New(nil, cfg.History.Depth)
	if err := h.Push("load", b); err != nil {
		return err
	}
	b.VacuumNets()
	if err := h.Push("vacuum", b); err != nil {
		return err
	}
	if verbose {
		if err := logRemoved(h, b); err != nil {
			return err
		}
	}

	out, err := b.Serialize()
	if err != nil {
		return err
	}
	if blockOutput == "" {
		_, err = os.Stdout.Write(append(out, '\n'))
		return err
	}
	return os.WriteFile(blockOutput, out, 0o644)
}

// logRemoved steps h back to the loaded state and logs the nets missing
// from vacuumed
func logRemoved(h *undo.History, vacuumed *netlist.Block) error {
	prev, err := h.Undo()
	if err != nil {
		return err
	}
	removed := 0
	for _, n := range prev.SortedNets() {
		if vacuumed.GetNet(n.UUID) == nil {
			logger.Printf("removed net %s", n.DisplayName())
			removed++
		}
	}
	logger.Printf("%s: removed %d of %d nets", prev.Name, removed, len(prev.Nets))
	return nil
}
