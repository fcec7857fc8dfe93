package dialect

import (
	"regexp"
	"strings"
)

// Verdict is what a rule decided about a line.
type Verdict int

const (
	// Keep passes the line, possibly rewritten, on to the next rule.
	Keep Verdict = iota
	// Drop discards the line.
	Drop
	// Replace emits Outcome.Lines in place of the line and ends rule processing.
	Replace
)

func (v Verdict) String() string {
	switch v {
	case Keep:
		return "keep"
	case Drop:
		return "drop"
	case Replace:
		return "replace"
	}
	return "unknown"
}

// Outcome is the result of applying one rule to one line.
type Outcome struct {
	Verdict Verdict
	Line    string   // rewritten line, for Keep
	Lines   []string // emitted lines, for Replace
}

// Rule is one named step of the line rewrite. Rules never fail: a line they do
// not recognise is kept unchanged.
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
	apply   func(r Rule, line, stem string) Outcome
}

// Apply runs the rule on line. stem is the first dot-delimited segment of the
// source file's base name.
func (r Rule) Apply(line, stem string) Outcome {
	return r.apply(r, line, stem)
}

// Raw returns the pattern text, empty for rules without one.
func (r Rule) Raw() string {
	if r.Pattern == nil {
		return ""
	}
	return r.Pattern.String()
}

// dropRule discards every line matching pattern.
func dropRule(name, pattern string) Rule {
	return Rule{
		Name:    name,
		Pattern: regexp.MustCompile(pattern),
		apply: func(r Rule, line, _ string) Outcome {
			if r.Pattern.MatchString(line) {
				return Outcome{Verdict: Drop}
			}
			return Outcome{Verdict: Keep, Line: line}
		},
	}
}

// rewriteRule replaces every match of pattern with repl.
func rewriteRule(name, pattern, repl string) Rule {
	return Rule{
		Name:    name,
		Pattern: regexp.MustCompile(pattern),
		apply: func(r Rule, line, _ string) Outcome {
			return Outcome{Verdict: Keep, Line: r.Pattern.ReplaceAllString(line, repl)}
		},
	}
}

// entryRule renames the program entry label after the unit it lives in and
// exports it.
func entryRule(name, pattern string) Rule {
	return Rule{
		Name:    name,
		Pattern: regexp.MustCompile(pattern),
		apply: func(r Rule, line, stem string) Outcome {
			if !r.Pattern.MatchString(line) {
				return Outcome{Verdict: Keep, Line: line}
			}
			label := EntryLabel(stem)
			return Outcome{Verdict: Replace, Lines: []string{"\t.global " + label, label + ":"}}
		},
	}
}

// trimRule strips trailing whitespace and drops lines left empty.
func trimRule(name string) Rule {
	return Rule{
		Name: name,
		apply: func(_ Rule, line, _ string) Outcome {
			line = strings.TrimRight(line, " \t\r\n\v\f")
			if line == "" {
				return Outcome{Verdict: Drop}
			}
			return Outcome{Verdict: Keep, Line: line}
		},
	}
}

// EntryLabel is the exported name of the entry label in unit stem.
func EntryLabel(stem string) string {
	return stem + "_main"
}

// Rules returns the line rules in the order they are applied.
func Rules() []Rule {
	return []Rule{
		dropRule("section", `^\s*\.section\b`),
		dropRule("type", `^\s*\.type\b`),
		dropRule("size", `^\s*\.size\b`),
		dropRule("ident", `^\s*\.ident\b`),
		dropRule("section-directive", `^\s*\.(text|data|bss)\b`),
		dropRule("global", `^\s*\.globa?l\b`),
		dropRule("file", `^\s*\.file\b`),
		dropRule("func-end", `^\s*\.Lfunc_end\d+:`),
		dropRule("local-label", `^\s*\S+\$local:`),
		entryRule("entry", `main:`),
		rewriteRule("comment", `#.*$`, ""),
		rewriteRule("register", `%([ad])`, "$1"),
		rewriteRule("bracket-space", `\] `, "]"),
		rewriteRule("immediate", `, (\d+)`, ", #$1"),
		trimRule("trim"),
	}
}

// Lookup returns the rule called name from Rules.
func Lookup(name string) (Rule, bool) {
	for _, r := range Rules() {
		if r.Name == name {
			return r, true
		}
	}
	return Rule{}, false
}
