package query

import "time"

// ParsedQuery is the fully resolved result of parsing a raw search
// string: the AST (nil for an empty body) and the resolved inline
// commands.
type ParsedQuery struct {
	AST      *Node
	Commands Commands
}

// ParseQuery extracts inline commands then parses the remaining body
// into an AST, resolving !from/!to/!age against now.
func ParseQuery(raw string, now time.Time) (*ParsedQuery, error) {
	body, cmds := ExtractCommands(raw, now)
	ast, err := Parse(body)
	if err != nil {
		return nil, err
	}
	return &ParsedQuery{AST: ast, Commands: cmds}, nil
}

// CanonicalQuery renders the rewritten query string used as the
// SearchCache key and for the parser round-trip property.
func (q *ParsedQuery) CanonicalQuery() string {
	return Canonical(q.AST, q.Commands)
}
