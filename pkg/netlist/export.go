package netlist

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
)

// WriteKiCadNetlist writes the block in the KiCad netlist exchange format
// (export (version "E") ...). Nets without pins are skipped.
func (b *Block) WriteKiCadNetlist(w io.Writer, source string) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "(export (version \"E\")\n")
	fmt.Fprintf(bw, "  (design\n")
	fmt.Fprintf(bw, "    (source %s)\n", quote(source))
	fmt.Fprintf(bw, "    (tool \"otnet\"))\n")

	// Components
	fmt.Fprintf(bw, "  (components")
	for _, c := range b.SortedComponents() {
		fmt.Fprintf(bw, "\n    (comp (ref %s) (value %s)", quote(c.Refdes), quote(c.Value))
		if e := c.Entity.Get(); e != nil {
			fmt.Fprintf(bw, " (libsource (part %s))", quote(e.Name))
		}
		fmt.Fprintf(bw, ")")
	}
	fmt.Fprintf(bw, ")\n")

	// Nets
	fmt.Fprintf(bw, "  (nets")
	code := 0
	for _, n := range b.SortedNets() {
		pins := b.NetPins(n.UUID)
		if len(pins) == 0 {
			continue
		}
		code++
		class := DefaultNetClassName
		if nc := n.NetClass.Get(); nc != nil {
			class = nc.Name
		}
		fmt.Fprintf(bw, "\n    (net (code %s) (name %s) (class %s)",
			quote(strconv.Itoa(code)), quote(n.DisplayName()), quote(class))
		for _, p := range pins {
			c := b.Components[p.Component]
			fmt.Fprintf(bw, "\n      (node (ref %s) (pin %s))", quote(c.Refdes), quote(c.PinName(p.Key())))
		}
		fmt.Fprintf(bw, ")")
	}
	fmt.Fprintf(bw, "))\n")

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("netlist: write netlist: %w", err)
	}
	return nil
}

// quote writes s as a KiCad string: double quotes, with " and \ escaped
func quote(s string) string {
	out := make([]byte, 0, len(s)+2)
	out = append(out, '"')
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"', '\\':
			out = append(out, '\\', s[i])
		case '\n':
			out = append(out, '\\', 'n')
		default:
			out = append(out, s[i])
		}
	}
	return string(append(out, '"'))
}
