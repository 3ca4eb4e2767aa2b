package rewrite

import "fmt"

// Stat records what one step did.
type Stat struct {
	Step  string
	Count int
}

// Pipeline applies steps in order, each to the previous step's output.
type Pipeline struct {
	steps []Step
}

// NewPipeline returns a pipeline over steps.
func NewPipeline(steps ...Step) *Pipeline {
	return &Pipeline{steps: steps}
}

// CompileRules builds a pipeline from rules.
func CompileRules(rules []Rule) (*Pipeline, error) {
	if len(rules) == 0 {
		return nil, ErrNoRules
	}
	steps := make([]Step, 0, len(rules))
	for i, r := range rules {
		c, err := r.Compile()
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i+1, err)
		}
		steps = append(steps, c)
	}
	return NewPipeline(steps...), nil
}

// Run applies every step and reports per-step counts.
func (p *Pipeline) Run(text string) (string, []Stat, error) {
	stats := make([]Stat, 0, len(p.steps))
	for _, s := range p.steps {
		out, n, err := s.Apply(text)
		if err != nil {
			return text, stats, err
		}
		text = out
		stats = append(stats, Stat{Step: s.Name(), Count: n})
	}
	return text, stats, nil
}

// Name makes a pipeline usable as a single step.
func (p *Pipeline) Name() string { return "pipeline" }

// Apply runs the pipeline and returns the total substitution count.
func (p *Pipeline) Apply(text string) (string, int, error) {
	out, stats, err := p.Run(text)
	total := 0
	for _, s := range stats {
		total += s.Count
	}
	return out, total, err
}
