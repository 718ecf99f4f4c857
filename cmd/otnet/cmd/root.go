package cmd

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/netcore/internal/config"
)

var (
	// Global flags
	verbose    bool
	configPath string

	cfg    *config.Config
	logger = log.New(io.Discard, "otnet: ", 0)
)

var rootCmd = &cobra.Command{
	Use:   "otnet",
	Short: "otnet - netlist and connectivity tools for KiCad designs",
	Long: `otnet builds the electrical model of a design from KiCad files:
  - net segments and conflicts of schematic sheets
  - merged netlists across sheets
  - copper topology and shorts of boards

Examples:
  otnet sch segments top.kicad_sch       # Show net segments of a sheet
  otnet sch netlist a.kicad_sch b.kicad_sch
  otnet pcb reduce board.kicad_pcb --net GND
  otnet pcb check board.kicad_pcb --sch top.kicad_sch`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			logger.SetOutput(os.Stderr)
		}
		c, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = c
		logger.Printf("power nets: %v, snap tolerance %g mm", cfg.Netlist.PowerNets, cfg.Import.SnapToleranceMM)
		return nil
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default ./"+config.FileName+" if present)")
}
