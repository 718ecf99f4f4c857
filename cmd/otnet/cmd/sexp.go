package cmd

import (
	"fmt"
	"os"
	"strconv"

	chewxy "github.com/chewxy/sexp"
	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/netcore/pkg/kicad/sexp"
)

var sexpCmd = &cobra.Command{
	Use:   "sexp",
	Short: "S-expression file diagnostics",
}

var sexpStatCmd = &cobra.Command{
	Use:   "stat <kicad_file>",
	Short: "Compare s-expression parsers on a file",
	Long: `Parse a KiCad file with the built-in s-expression reader and with
github.com/chewxy/sexp, then print the top level expression and leaf counts
each reports. Useful when a file fails to import and the reader is suspect.`,
	Args: cobra.ExactArgs(1),
	RunE: runSexpStat,
}

func init() {
	rootCmd.AddCommand(sexpCmd)
	sexpCmd.AddCommand(sexpStatCmd)
}

func runSexpStat(cmd *cobra.Command, args []string) error {
	filename := args[0]
	info, err := os.Stat(filename)
	if err != nil {
		return err
	}
	fmt.Printf("File: %s (%d bytes)\n", filename, info.Size())

	t := newTable("PARSER", "EXPRS", "LEAVES", "ERROR")

	f, err := os.Open(filename)
	if err != nil {
		return err
	}
	ours, oursErr := sexp.Parse(f)
	f.Close()
	oursLeaves := 0
	for _, s := range ours {
		if s.IsLeaf() {
			oursLeaves++
			continue
		}
		oursLeaves += s.LeafCount()
	}
	t.add("netcore", strconv.Itoa(len(ours)), strconv.Itoa(oursLeaves), errText(oursErr))

	f, err = os.Open(filename)
	if err != nil {
		return err
	}
	theirs, theirsErr := chewxy.Parse(f)
	f.Close()
	theirsLeaves := 0
	for _, s := range theirs {
		if s.IsLeaf() {
			theirsLeaves++
			continue
		}
		theirsLeaves += s.LeafCount()
	}
	t.add("chewxy/sexp", strconv.Itoa(len(theirs)), strconv.Itoa(theirsLeaves), errText(theirsErr))

	t.write(os.Stdout)
	logger.Printf("leaf counts: %d vs %d", oursLeaves, theirsLeaves)
	if oursErr != nil {
		return fmt.Errorf("%s: %w", filename, oursErr)
	}
	return nil
}

func errText(err error) string {
	if err == nil {
		return "-"
	}
	return err.Error()
}
