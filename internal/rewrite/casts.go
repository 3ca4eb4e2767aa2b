package rewrite

import (
	"regexp"
	"strings"
)

const (
	typeDecl = `/\*\*\s*@type\s*\{[a-zA-Z.<>]*\}\s*\*/\s*`
	varDecl  = `var\s*[a-zA-Z0-9_]*`
)

var (
	typeDeclPattern = regexp.MustCompile(typeDecl)
	castDeclPattern = regexp.MustCompile(typeDecl + `\s*` + varDecl + `\s*=\s*` + typeDecl + `\s*\((.*)\)`)
)

// CastSimplifier drops the leading type annotation from statements of the
// form "/** @type {T} */ var x = /** @type {T} */ (expr)"; the cast already
// types the variable. Union and wildcard types are not matched.
type CastSimplifier struct{}

func (CastSimplifier) Name() string { return "simplify-casts" }

// Apply rewrites every matching ";\n"-terminated statement.
func (CastSimplifier) Apply(text string) (string, int, error) {
	stmts := strings.Split(text, ";\n")
	n := 0
	for i, s := range stmts {
		if !castDeclPattern.MatchString(s) {
			continue
		}
		loc := typeDeclPattern.FindStringIndex(s)
		stmts[i] = s[:loc[0]] + s[loc[1]:]
		n++
	}
	if n == 0 {
		return text, 0, nil
	}
	return strings.Join(stmts, ";\n"), n, nil
}
