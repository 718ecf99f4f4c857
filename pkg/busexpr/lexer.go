package busexpr

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// busLexer tokenizes bus label text such as "D[0..7]" or "I2C{SDA SCL}"
var busLexer = lexer.MustSimple([]lexer.SimpleRule{
	// Members of a group may be separated by spaces or commas
	{Name: "Whitespace", Pattern: `[\s,]+`},

	{Name: "Range", Pattern: `\.\.`},

	// Identifiers may start with digits (3V3) but need at least one non-digit
	{Name: "Ident", Pattern: `[A-Za-z0-9_+~/#\-]*[A-Za-z_+~/#\-][A-Za-z0-9_+~/#\-.]*`},
	{Name: "Int", Pattern: `[0-9]+`},

	{Name: "Punct", Pattern: `[\[\]{}]`},
})
