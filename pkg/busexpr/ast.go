package busexpr

// label is a complete bus label: a group, a vector or a plain net name
type label struct {
	Group  *group  `  @@`
	Vector *vector `| @@`
	Name   string  `| @Ident`
}

// group lists members between braces, with an optional prefix
// Example: I2C{SDA SCL}
type group struct {
	Prefix string  `@Ident? "{"`
	Items  []*item `@@+ "}"`
}

// item is one member of a group
type item struct {
	Vector *vector `  @@`
	Name   string  `| @Ident`
}

// vector is a numbered range
// Example: D[0..7]
type vector struct {
	Prefix string `@Ident "["`
	From   int    `@Int ".."`
	To     int    `@Int "]"`
}
