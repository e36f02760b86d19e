package enrich

// Enricher is a single stage of the enrichment chain. Each stage either
// mutates the scratchpad in place or returns an error, in which case the
// whole raw payload (not just the one candidate event) is failed.
type Enricher interface {
	Enrich(pad *Scratchpad) error
}

// Chain runs a fixed, ordered sequence of Enrichers against a scratchpad,
// stopping at the first error.
type Chain struct {
	stages []Enricher
}

// NewChain builds a Chain from stages, run in the given order.
func NewChain(stages ...Enricher) *Chain {
	return &Chain{stages: stages}
}

// Run executes every stage in order against pad.
func (c *Chain) Run(pad *Scratchpad) error {
	for _, stage := range c.stages {
		if err := stage.Enrich(pad); err != nil {
			return err
		}
	}
	return nil
}
