package signals

// DecisionResult wraps one agent's decision value with reasoning text, a
// confidence score in [0,1], and any errors captured along the way. Produced
// once per agent per invocation; treated as immutable after that.
type DecisionResult[T any] struct {
	Value      T
	Reasoning  string
	Confidence float64
	Errors     []error
}

// Degraded reports whether the result fell back to the agent's default
// decision because of a captured error.
func (r DecisionResult[T]) Degraded() bool {
	return len(r.Errors) > 0
}

// Provenance is the non-generic audit snapshot of a DecisionResult, recorded
// in the response's provenance map under the agent's name.
type Provenance struct {
	Agent      string   `json:"agent"`
	Decision   string   `json:"decision"`
	Reasoning  string   `json:"reasoning,omitempty"`
	Confidence float64  `json:"confidence"`
	Errors     []string `json:"errors,omitempty"`
}

// Provenance converts the result into its audit snapshot.
func (r DecisionResult[T]) Provenance(agent, decision string) Provenance {
	p := Provenance{
		Agent:      agent,
		Decision:   decision,
		Reasoning:  r.Reasoning,
		Confidence: r.Confidence,
	}
	for _, err := range r.Errors {
		p.Errors = append(p.Errors, err.Error())
	}
	return p
}
