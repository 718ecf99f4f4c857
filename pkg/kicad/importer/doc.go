// Package importer turns parsed KiCad schematics and boards into sheets,
// boards and the shared netlist block behind them.
//
// Connectivity is rebuilt from geometry: wire ends, junction dots, labels
// and pins that share an exact position are joined. Net names come from
// labels and power symbols; the nets KiCad stored in the files are only
// used for board-only components.
package importer
