package rewrite

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
)

// Mode selects the matching engine of a rule.
type Mode string

const (
	// ModeRE2 uses Go's regexp. Replacements expand $1 and ${name}.
	ModeRE2 Mode = "re2"
	// ModeBacktrack uses regexp2 and supports look-around. Replacements
	// expand $1 and ${name}.
	ModeBacktrack Mode = "backtrack"
	// ModeLiteral replaces the pattern text as-is.
	ModeLiteral Mode = "literal"
)

// backtrackTimeout bounds a single backtracking match.
const backtrackTimeout = 5 * time.Second

// Step is one text-to-text transformation. It returns the new text and the
// number of substitutions it made.
type Step interface {
	Name() string
	Apply(text string) (string, int, error)
}

// Rule is a pattern/replacement pair. Limit caps the number of replacements;
// 0 replaces every occurrence.
type Rule struct {
	Name        string `toml:"name"`
	Pattern     string `toml:"pattern"`
	Replacement string `toml:"replacement"`
	Limit       int    `toml:"limit"`
	Mode        Mode   `toml:"mode"`
}

// Compile validates the rule and prepares its matcher.
func (r Rule) Compile() (*CompiledRule, error) {
	if r.Pattern == "" {
		return nil, fmt.Errorf("rule %q: empty pattern", r.Name)
	}
	if r.Limit < 0 {
		return nil, fmt.Errorf("rule %q: negative limit %d", r.Name, r.Limit)
	}
	c := &CompiledRule{rule: r}
	switch r.Mode {
	case ModeRE2, "":
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w (look-around needs mode %q)", r.Name, err, ModeBacktrack)
		}
		c.rule.Mode = ModeRE2
		c.re2 = re
	case ModeBacktrack:
		re, err := regexp2.Compile(r.Pattern, regexp2.None)
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", r.Name, err)
		}
		re.MatchTimeout = backtrackTimeout
		c.bt = re
	case ModeLiteral:
	default:
		return nil, fmt.Errorf("rule %q: unknown mode %q (expected: re2|backtrack|literal)", r.Name, r.Mode)
	}
	return c, nil
}

// CompiledRule is a ready-to-apply Rule.
type CompiledRule struct {
	rule Rule
	re2  *regexp.Regexp
	bt   *regexp2.Regexp
}

func (c *CompiledRule) Name() string {
	if c.rule.Name != "" {
		return c.rule.Name
	}
	return c.rule.Pattern
}

// Apply replaces up to Limit matches, leftmost first.
func (c *CompiledRule) Apply(text string) (string, int, error) {
	switch c.rule.Mode {
	case ModeLiteral:
		return c.applyLiteral(text)
	case ModeBacktrack:
		return c.applyBacktrack(text)
	default:
		return c.applyRE2(text)
	}
}

func (c *CompiledRule) limit() int {
	if c.rule.Limit == 0 {
		return -1
	}
	return c.rule.Limit
}

func (c *CompiledRule) applyLiteral(text string) (string, int, error) {
	n := strings.Count(text, c.rule.Pattern)
	if c.rule.Limit > 0 && n > c.rule.Limit {
		n = c.rule.Limit
	}
	if n == 0 {
		return text, 0, nil
	}
	return strings.Replace(text, c.rule.Pattern, c.rule.Replacement, n), n, nil
}

func (c *CompiledRule) applyRE2(text string) (string, int, error) {
	matches := c.re2.FindAllStringSubmatchIndex(text, c.limit())
	if len(matches) == 0 {
		return text, 0, nil
	}
	var out []byte
	last := 0
	for _, m := range matches {
		out = append(out, text[last:m[0]]...)
		out = c.re2.ExpandString(out, c.rule.Replacement, text, m)
		last = m[1]
	}
	out = append(out, text[last:]...)
	return string(out), len(matches), nil
}

func (c *CompiledRule) applyBacktrack(text string) (string, int, error) {
	n, err := c.countBacktrack(text)
	if err != nil || n == 0 {
		return text, 0, err
	}
	out, err := c.bt.Replace(text, c.rule.Replacement, -1, n)
	if err != nil {
		return text, 0, fmt.Errorf("rule %q: %w", c.Name(), err)
	}
	return out, n, nil
}

func (c *CompiledRule) countBacktrack(text string) (int, error) {
	limit := c.limit()
	n := 0
	m, err := c.bt.FindStringMatch(text)
	for m != nil && err == nil {
		n++
		if limit > 0 && n == limit {
			break
		}
		m, err = c.bt.FindNextMatch(m)
	}
	if err != nil {
		return 0, fmt.Errorf("rule %q: %w", c.Name(), err)
	}
	return n, nil
}

// ErrNoRules is returned when a pipeline is built from an empty rule list.
var ErrNoRules = errors.New("no rewrite rules configured")
