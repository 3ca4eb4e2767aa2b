package rewrite

import (
	"fmt"
	"regexp"
	"strings"
)

var functionParams = regexp.MustCompile(`function\s*\(([\w,\s]*)\)`)

// Annotator inserts JSDoc stubs before undocumented members of a namespace:
// every "<ns>.member = ... };" block that does not already carry a /** */
// comment gets @param/@return/@throws tags, or @enum when it is not a
// function.
type Annotator struct {
	Namespace string
	// Indent prefixes each comment line; four spaces when empty.
	Indent string
}

func (a Annotator) Name() string { return "annotate:" + a.Namespace }

func (a Annotator) pattern() (*regexp.Regexp, error) {
	if a.Namespace == "" {
		return nil, fmt.Errorf("annotator: namespace is required")
	}
	return regexp.Compile(`(/\*\*[\s\S]*?)?` + regexp.QuoteMeta(a.Namespace) + `\.[\s\S]*?\};`)
}

// Apply annotates text and returns the number of comments inserted.
func (a Annotator) Apply(text string) (string, int, error) {
	re, err := a.pattern()
	if err != nil {
		return text, 0, err
	}
	n := 0
	out := re.ReplaceAllStringFunc(text, func(block string) string {
		if strings.Contains(block, "/**") {
			return block
		}
		n++
		return a.comment(block) + block
	})
	return out, n, nil
}

func (a Annotator) comment(block string) string {
	indent := a.Indent
	if indent == "" {
		indent = "    "
	}
	var b strings.Builder
	b.WriteString("\n" + indent + "/**")
	line := func(s string) { b.WriteString("\n" + indent + "* " + s) }
	if strings.Contains(block, "function") {
		if m := functionParams.FindStringSubmatch(block); m != nil {
			for _, p := range strings.Split(m[1], ",") {
				if p = strings.TrimSpace(p); p != "" {
					line("@param {number} " + p)
				}
			}
		}
		if strings.Contains(block, "return") {
			line("@return {number}")
		}
		if strings.Contains(block, "throw") {
			line("@throws {Error}")
		}
	} else {
		line("@enum")
	}
	b.WriteString("\n" + indent + "*/\n" + indent)
	return b.String()
}
