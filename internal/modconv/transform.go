package modconv

import (
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/dlclark/regexp2"
)

// ErrNoDefine is returned for a file without a require.js define header.
var ErrNoDefine = errors.New("no define(...) header found")

var definePattern = regexp.MustCompile(`define[^{]*\{`)

// Namespace is the Closure identity of a converted file.
type Namespace struct {
	Provide string // e.g. "framework.common.tcuTexture"
	Alias   string // e.g. "tcuTexture"
}

// NamespaceFor derives the namespace from a slash-separated path relative to
// the deqp directory, e.g. "framework/common/tcuTexture.js".
func NamespaceFor(rel string) Namespace {
	rel = strings.TrimSuffix(strings.TrimPrefix(path.Clean(rel), "./"), ".js")
	provide := strings.ReplaceAll(rel, "/", ".")
	return Namespace{Provide: provide, Alias: aliasOf(provide)}
}

// DeqpRelative returns the part of p after its first "deqp/" directory.
func DeqpRelative(p string) (string, bool) {
	p = strings.ReplaceAll(p, `\`, "/")
	if strings.HasPrefix(p, "deqp/") {
		return p[len("deqp/"):], true
	}
	if i := strings.Index(p, "/deqp/"); i >= 0 {
		return p[i+len("/deqp/"):], true
	}
	return "", false
}

func aliasOf(dotted string) string {
	return dotted[strings.LastIndex(dotted, ".")+1:]
}

// AddAliases qualifies every top-level name not in whitelist with alias.
// A leading "var" is dropped and member accesses (".name") are left alone.
func AddAliases(src, alias string, names, whitelist []string) (string, error) {
	skip := make(map[string]bool, len(whitelist))
	for _, w := range whitelist {
		skip[strings.TrimSpace(w)] = true
	}
	for _, name := range names {
		if skip[name] {
			continue
		}
		re, err := regexp2.Compile(`(var\s*)??\b(?<!\.)`+regexp2.Escape(name)+`\b`, regexp2.None)
		if err != nil {
			return src, fmt.Errorf("alias %s: %w", name, err)
		}
		out, err := re.Replace(src, alias+"."+name, -1, -1)
		if err != nil {
			return src, fmt.Errorf("alias %s: %w", name, err)
		}
		src = out
	}
	return src, nil
}

// BuildHeader renders the goog.provide/require/scope preamble.
func BuildHeader(ns Namespace, deps []string) string {
	var b strings.Builder
	b.WriteString("'use strict';\n")
	fmt.Fprintf(&b, "goog.provide('%s');\n", ns.Provide)
	dotted := make([]string, 0, len(deps))
	for _, dep := range deps {
		if dep == "" {
			continue
		}
		d := strings.ReplaceAll(dep, "/", ".")
		dotted = append(dotted, d)
		fmt.Fprintf(&b, "goog.require('%s');\n", d)
	}
	b.WriteString("\n\ngoog.scope(function() {")
	fmt.Fprintf(&b, "\n\nvar %s = %s;", ns.Alias, ns.Provide)
	for _, d := range dotted {
		fmt.Fprintf(&b, "\nvar %s = %s;", aliasOf(d), d)
	}
	return b.String()
}

// ReplaceHeader drops 'use strict' statements and swaps the define(...) {
// opener for header.
func ReplaceHeader(src, header string) (string, error) {
	src = strings.ReplaceAll(src, "'use strict';", "")
	loc := definePattern.FindStringIndex(src)
	if loc == nil {
		return src, ErrNoDefine
	}
	return src[:loc[0]] + header + src[loc[1]:], nil
}

// RemoveReturn cuts the module's trailing "return ...};" export clause.
func RemoveReturn(src string) string {
	start := strings.LastIndex(src, "return")
	end := strings.LastIndex(src, "};")
	if start < 0 || end < start {
		return src
	}
	return src[:start] + src[end+2:]
}

// Transform converts one require.js module to the Closure convention.
func Transform(src string, ns Namespace, vars Vars, whitelist []string) (string, error) {
	out, err := AddAliases(src, ns.Alias, vars.Names, whitelist)
	if err != nil {
		return "", err
	}
	out, err = ReplaceHeader(out, BuildHeader(ns, vars.Deps))
	if err != nil {
		return "", err
	}
	return RemoveReturn(out), nil
}
