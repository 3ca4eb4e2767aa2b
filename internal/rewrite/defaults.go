package rewrite

// Built-in reformatting rules.
var (
	// LeadingTabs turns every tab in a line's leading whitespace into four
	// spaces.
	LeadingTabs = Rule{
		Name:        "leading-tabs",
		Pattern:     `(?m)(?<=^[ \t]*)\t`,
		Replacement: "    ",
		Mode:        ModeBacktrack,
	}
	// AssignmentSpacing normalizes "a=b" and "a  =  b" to "a = b". Comparison,
	// compound assignment, arrow and optional-parameter "=" are left alone.
	AssignmentSpacing = Rule{
		Name:        "assignment-spacing",
		Pattern:     `[ \t]*(?<![=!<>+\-*/%&|^])=(?![=>}),])[ \t]*`,
		Replacement: " = ",
		Mode:        ModeBacktrack,
	}
)

// DefaultRules returns the reformatting rules used when none are configured.
func DefaultRules() []Rule {
	return []Rule{LeadingTabs, AssignmentSpacing}
}
