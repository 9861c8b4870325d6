package harness

import "github.com/roach88/scenekit/internal/controller"

// StepRecord is the outcome of one step.
type StepRecord struct {
	Index int      `json:"index"`
	Op    string   `json:"op"`
	Paths []string `json:"paths,omitempty"`
	Error string   `json:"error,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every step behaved as expected and every
	// assertion held.
	Pass bool `json:"pass"`

	Steps []StepRecord `json:"steps"`

	// Errors contains step and assertion failures.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Paths lists the final document in path order.
	Paths []string `json:"paths"`

	// Nodes is the number of rendered entity nodes.
	Nodes int `json:"nodes"`

	History controller.History `json:"history"`

	// Export is the final scene as a blueprint JSON document, with live
	// joint positions.
	Export []byte `json:"-"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Steps:  []StepRecord{},
		Errors: []string{},
		Paths:  []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
