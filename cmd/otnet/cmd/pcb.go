package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/netcore/pkg/diag"
	"github.com/OpenTraceLab/netcore/pkg/kicad/importer"
)

var (
	pcbNetName  string
	pcbSchFiles []string
)

var pcbCmd = &cobra.Command{
	Use:   "pcb",
	Short: "KiCad board connectivity",
	Long:  `Commands that build the copper topology of KiCad PCB files (.kicad_pcb)`,
}

var pcbReduceCmd = &cobra.Command{
	Use:   "reduce <board_file>",
	Short: "Show the reduced track graph of each net",
	Long: `Import a board, build the track graph of every routed net and merge chains
of tracks through plain junctions into single edges. Each line shows one
remaining edge between pads and vias and how many tracks it stands for.

With --net only that net is shown.`,
	Args: cobra.ExactArgs(1),
	RunE: runPCBReduce,
}

var pcbCheckCmd = &cobra.Command{
	Use:   "check <board_file>",
	Short: "Report copper shorts",
	Long: `Import a board, together with its schematic sheets when given, and report
copper that joins pads of different nets. The command fails when a short
is found.`,
	Args: cobra.ExactArgs(1),
	RunE: runPCBCheck,
}

func init() {
	rootCmd.AddCommand(pcbCmd)
	pcbCmd.AddCommand(pcbReduceCmd)
	pcbCmd.AddCommand(pcbCheckCmd)

	pcbReduceCmd.Flags().StringVar(&pcbNetName, "net", "", "only show this net")
	pcbCmd.PersistentFlags().StringSliceVar(&pcbSchFiles, "sch", nil, "schematic sheets to import first")
}

func runPCBReduce(cmd *cobra.Command, args []string) error {
	proj, err := importer.LoadProject(cmd.Context(), pcbSchFiles, args[0], cfg)
	if err != nil {
		return fmt.Errorf("error importing board: %w", err)
	}
	b := proj.Board

	t := newTable("NET", "FROM", "TO", "TRACKS")
	shown := 0
	for _, g := range b.TrackGraphs() {
		name := g.Net.DisplayName()
		if pcbNetName != "" && g.Net.Name != pcbNetName {
			continue
		}
		before := len(g.Edges())
		g.MergeEdges()
		logger.Printf("%s: %d edges reduced to %d", name, before, len(g.Edges()))
		for _, e := range g.Edges() {
			t.add(name, b.NodeLabel(e.From), b.NodeLabel(e.To), strconv.Itoa(len(e.Tracks)))
		}
		shown++
	}
	if pcbNetName != "" && shown == 0 {
		return fmt.Errorf("net %q has no tracks", pcbNetName)
	}
	t.write(os.Stdout)
	return nil
}

func runPCBCheck(cmd *cobra.Command, args []string) error {
	proj, err := importer.LoadProject(cmd.Context(), pcbSchFiles, args[0], cfg)
	if err != nil {
		return fmt.Errorf("error importing board: %w", err)
	}
	b := proj.Board

	fmt.Printf("Board: %s\n", args[0])
	fmt.Printf("Packages: %d, tracks: %d, junctions: %d\n", len(b.Packages), len(b.Tracks), len(b.Junctions))
	printWarnings(os.Stdout, b.Warnings)

	if b.Warnings.HasKind(diag.ShortedNets) {
		return fmt.Errorf("%s: copper shorts found", args[0])
	}
	fmt.Println("No shorts found")
	return nil
}
