package query

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	defaultDistinctRatio = 90
	defaultMinScore      = 15
	resultsMax           = 100
	defaultWindowDays    = 7
)

// Commands holds the parsed inline "!directive" values, always
// resolved to their defaults so downstream code never re-checks for
// "unset".
type Commands struct {
	Strict       bool
	Debug        bool
	Distinct     bool
	DistinctN    int
	MinScore     int
	Count        int
	From         time.Time
	To           time.Time
	FromExplicit bool
	ToExplicit   bool
}

var commandPattern = regexp.MustCompile(`!(strict|debug|distinct(?::(\d+))?|min_score:(\d+)|count:(\d+)|from:(\d{4}-\d{2}-\d{2})|to:(\d{4}-\d{2}-\d{2})|age:(\d+))`)

var dateCommandPattern = regexp.MustCompile(`!(from|to|age):\S+`)

// DateCommandPattern exposes the !from/!to/!age matcher so callers
// (the dynamic-queries endpoint) can rewrite a query's date window
// without re-implementing the pattern.
func DateCommandPattern() *regexp.Regexp {
	return dateCommandPattern
}

// ExtractCommands scans raw for inline commands, strips them out, and
// returns the remaining query body plus the resolved Commands. now is
// injected so callers can test deterministically.
func ExtractCommands(raw string, now time.Time) (string, Commands) {
	cmds := Commands{
		DistinctN: defaultDistinctRatio,
		MinScore:  defaultMinScore,
		Count:     resultsMax,
	}

	var age *int
	body := commandPattern.ReplaceAllStringFunc(raw, func(match string) string {
		m := commandPattern.FindStringSubmatch(match)
		switch {
		case strings.HasPrefix(match, "!strict"):
			cmds.Strict = true
		case strings.HasPrefix(match, "!debug"):
			cmds.Debug = true
		case strings.HasPrefix(match, "!distinct"):
			cmds.Distinct = true
			if m[2] != "" {
				if n, err := strconv.Atoi(m[2]); err == nil {
					cmds.DistinctN = n
				}
			}
		case strings.HasPrefix(match, "!min_score"):
			if n, err := strconv.Atoi(m[3]); err == nil {
				cmds.MinScore = n
			}
		case strings.HasPrefix(match, "!count"):
			if n, err := strconv.Atoi(m[4]); err == nil {
				if n > resultsMax {
					n = resultsMax
				}
				cmds.Count = n
			}
		case strings.HasPrefix(match, "!from"):
			if t, err := time.Parse("2006-01-02", m[5]); err == nil {
				cmds.From = t
				cmds.FromExplicit = true
			}
		case strings.HasPrefix(match, "!to"):
			if t, err := time.Parse("2006-01-02", m[6]); err == nil {
				cmds.To = t
				cmds.ToExplicit = true
			}
		case strings.HasPrefix(match, "!age"):
			if n, err := strconv.Atoi(m[7]); err == nil {
				age = &n
			}
		}
		return " "
	})

	if age != nil {
		cmds.From = now.AddDate(0, 0, -*age)
		cmds.To = now
		cmds.FromExplicit = true
		cmds.ToExplicit = true
	}
	if !cmds.ToExplicit {
		cmds.To = now
	}
	if !cmds.FromExplicit {
		cmds.From = now.AddDate(0, 0, -defaultWindowDays)
	}

	return strings.Join(strings.Fields(body), " "), cmds
}

// HardWindow returns the retrieval-stage date window: the soft window
// extended 50% on each side, collapsing to the soft window itself
// under !strict.
func (c Commands) HardWindow() (time.Time, time.Time) {
	if c.Strict {
		return c.From, c.To
	}
	span := c.To.Sub(c.From)
	pad := span / 2
	return c.From.Add(-pad), c.To.Add(pad)
}

// Canonical renders the rewritten query: the AST plus every command
// this engine resolved, so !from/!to are always explicit and a
// second parse of the output is idempotent (used as the cache key and
// for the parser round-trip property).
func Canonical(body *Node, c Commands) string {
	var parts []string
	if body != nil {
		parts = append(parts, body.String())
	}
	if c.Strict {
		parts = append(parts, "!strict")
	}
	if c.Debug {
		parts = append(parts, "!debug")
	}
	if c.Distinct {
		parts = append(parts, "!distinct:"+strconv.Itoa(c.DistinctN))
	}
	parts = append(parts, "!min_score:"+strconv.Itoa(c.MinScore))
	parts = append(parts, "!count:"+strconv.Itoa(c.Count))
	parts = append(parts, "!from:"+c.From.Format("2006-01-02"))
	parts = append(parts, "!to:"+c.To.Format("2006-01-02"))
	return strings.Join(parts, " ")
}
