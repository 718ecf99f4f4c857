// Package busexpr parses bus label text into the list of member net names.
//
// Two forms are understood, and may be nested one level:
//
//	D[0..3]          → D0 D1 D2 D3
//	D[3..0]          → D3 D2 D1 D0
//	{SDA SCL}        → SDA SCL
//	I2C{SDA SCL}     → I2C.SDA I2C.SCL
//	MEM{A[0..1] WE}  → MEM.A0 MEM.A1 MEM.WE
package busexpr

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
)

// MaxMembers bounds the expansion of a single label
const MaxMembers = 1024

var parser = participle.MustBuild[label](
	participle.Lexer(busLexer),
	participle.Elide("Whitespace"),
	participle.UseLookahead(2),
)

// Expand returns the member names of a bus label, in label order
func Expand(text string) ([]string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("busexpr: empty label")
	}

	l, err := parser.ParseString("", text)
	if err != nil {
		return nil, fmt.Errorf("busexpr: parse %q: %w", text, err)
	}

	var members []string
	switch {
	case l.Group != nil:
		members, err = l.Group.expand()
	case l.Vector != nil:
		members, err = l.Vector.expand("")
	default:
		members = []string{l.Name}
	}
	if err != nil {
		return nil, fmt.Errorf("busexpr: %q: %w", text, err)
	}
	return members, nil
}

// IsBusLabel reports whether text is a vector or group bus label
func IsBusLabel(text string) bool {
	if !strings.ContainsAny(text, "[{") {
		return false
	}
	members, err := Expand(text)
	return err == nil && len(members) > 0
}

func (g *group) expand() ([]string, error) {
	prefix := ""
	if g.Prefix != "" {
		prefix = g.Prefix + "."
	}

	var members []string
	for _, it := range g.Items {
		if it.Vector != nil {
			vm, err := it.Vector.expand(prefix)
			if err != nil {
				return nil, err
			}
			members = append(members, vm...)
		} else {
			members = append(members, prefix+it.Name)
		}
		if len(members) > MaxMembers {
			return nil, fmt.Errorf("more than %d members", MaxMembers)
		}
	}
	return members, nil
}

func (v *vector) expand(prefix string) ([]string, error) {
	n := v.To - v.From
	step := 1
	if n < 0 {
		n = -n
		step = -1
	}
	if n+1 > MaxMembers {
		return nil, fmt.Errorf("range %d..%d has more than %d members", v.From, v.To, MaxMembers)
	}

	members := make([]string, 0, n+1)
	for i, idx := 0, v.From; i <= n; i, idx = i+1, idx+step {
		members = append(members, prefix+v.Prefix+strconv.Itoa(idx))
	}
	return members, nil
}
