package importer

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/OpenTraceLab/netcore/internal/config"
	"github.com/OpenTraceLab/netcore/pkg/board"
	"github.com/OpenTraceLab/netcore/pkg/kicad/pcb"
	"github.com/OpenTraceLab/netcore/pkg/kicad/schematic"
	"github.com/OpenTraceLab/netcore/pkg/netlist"
	"github.com/OpenTraceLab/netcore/pkg/pool"
	"github.com/OpenTraceLab/netcore/pkg/sheet"
)

// Project is a block with the sheets and board drawn from it
type Project struct {
	Block  *netlist.Block
	Pool   *pool.MemoryPool
	Sheets []*sheet.Sheet
	Board  *board.Board // nil without a board file
}

// LoadProject parses the schematic files and the optional board file
// concurrently, then builds one block from them in argument order. Nets
// are shared between sheets by name.
func LoadProject(ctx context.Context, schPaths []string, pcbPath string, cfg *config.Config) (*Project, error) {
	if len(schPaths) == 0 && pcbPath == "" {
		return nil, fmt.Errorf("import: no input files")
	}

	schematics := make([]*schematic.Schematic, len(schPaths))
	var layout *pcb.Board

	g, ctx := errgroup.WithContext(ctx)
	for i, path := range schPaths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			sch, err := schematic.ParseFile(path)
			if err != nil {
				return err
			}
			schematics[i] = sch
			return nil
		})
	}
	if pcbPath != "" {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			pb, err := pcb.ParseFile(pcbPath)
			if err != nil {
				return err
			}
			layout = pb
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	name := pcbPath
	if len(schPaths) > 0 {
		name = schPaths[0]
	}
	prj := &Project{
		Block: netlist.NewBlock(baseName(name)),
		Pool:  pool.NewMemoryPool(),
	}
	if nc := prj.Block.NetClassDefault.Get(); nc != nil && cfg.Netlist.DefaultNetClass != "" {
		nc.Name = cfg.Netlist.DefaultNetClass
	}

	keepers := make([]netlist.NetKeeper, 0, len(schematics))
	for i, sch := range schematics {
		s, err := BuildSheet(sch, baseName(schPaths[i]), prj.Block, prj.Pool, cfg)
		if err != nil {
			return nil, err
		}
		prj.Sheets = append(prj.Sheets, s)
		keepers = append(keepers, s.KeepNets)
	}
	prj.Block.VacuumNetsKeeping(keepers...)

	if layout != nil {
		b, err := BuildBoard(layout, prj.Block, prj.Pool, cfg)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", pcbPath, err)
		}
		prj.Board = b
	}
	return prj, nil
}

func baseName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}
