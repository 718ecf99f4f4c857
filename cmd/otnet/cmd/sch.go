package cmd

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/netcore/pkg/kicad/importer"
	"github.com/OpenTraceLab/netcore/pkg/sheet"
)

var schCmd = &cobra.Command{
	Use:   "sch",
	Short: "KiCad schematic connectivity",
	Long:  `Commands that build the electrical model of KiCad schematic files (.kicad_sch)`,
}

var schSegmentsCmd = &cobra.Command{
	Use:   "segments <schematic_file>",
	Short: "Show the net segments of a sheet",
	Long: `Import a schematic sheet and list its net segments: the connected groups
of wires, junctions and pins. Each row shows the net or bus the segment
resolved to, the pins on it and whether its declarations conflict.
Conflicts and other warnings are printed after the table.`,
	Args: cobra.ExactArgs(1),
	RunE: runSchSegments,
}

var schNetlistCmd = &cobra.Command{
	Use:   "netlist <schematic_file>...",
	Short: "Write a KiCad netlist for one or more sheets",
	Long: `Import the given sheets into one block, joining nets by name across sheets,
and write the result as a KiCad (export) netlist to stdout.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSchNetlist,
}

func init() {
	rootCmd.AddCommand(schCmd)
	schCmd.AddCommand(schSegmentsCmd)
	schCmd.AddCommand(schNetlistCmd)
}

func runSchSegments(cmd *cobra.Command, args []string) error {
	proj, err := importer.LoadProject(cmd.Context(), args, "", cfg)
	if err != nil {
		return fmt.Errorf("error importing schematic: %w", err)
	}
	s := proj.Sheets[0]
	infos := s.AnalyzeNetSegments()
	logger.Printf("%s: %d segments, %d symbols, %d lines", s.Name, len(infos), len(s.Symbols), len(s.Lines))

	list := make([]*sheet.SegmentInfo, 0, len(infos))
	for _, si := range infos {
		list = append(list, si)
	}
	sort.Slice(list, func(i, j int) bool {
		a, b := list[i].Position, list[j].Position
		if a.X != b.X {
			return a.X < b.X
		}
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return list[i].Anchor.String() < list[j].Anchor.String()
	})

	t := newTable("SEGMENT", "AT", "NET", "PINS", "SOURCES", "")
	for _, si := range list {
		var pins []string
		for _, path := range s.GetPinsConnectedToNetSegment(si.Segment) {
			pins = append(pins, s.Block.PinLabel(path))
		}
		sort.Strings(pins)

		name := "-"
		switch {
		case si.Bus != nil:
			name = "bus " + si.Bus.Name
		case si.Net != nil:
			name = si.Net.DisplayName()
		}
		flag := ""
		if si.Conflict {
			flag = "conflict"
		}
		t.add(si.Anchor.String()[:8], si.Position.String(), name, strings.Join(pins, " "),
			strconv.Itoa(len(si.Sources)), flag)
	}
	t.write(os.Stdout)

	if s.Warnings.Len() > 0 {
		fmt.Println()
		printWarnings(os.Stdout, s.Warnings)
	}
	return nil
}

func runSchNetlist(cmd *cobra.Command, args []string) error {
	proj, err := importer.LoadProject(cmd.Context(), args, "", cfg)
	if err != nil {
		return fmt.Errorf("error importing schematic: %w", err)
	}
	for _, s := range proj.Sheets {
		if n := s.Warnings.Len(); n > 0 {
			logger.Printf("%s: %d warnings", s.Name, n)
			printWarnings(os.Stderr, s.Warnings)
		}
	}
	return proj.Block.WriteKiCadNetlist(os.Stdout, args[0])
}
