package solver

// Status reports how a solve ended.
type Status string

const (
	Optimal    Status = "optimal"
	Infeasible Status = "infeasible"
	Unbounded  Status = "unbounded"
	// Numeric covers any other failure of the backend (ill conditioning, singular basis).
	Numeric Status = "numeric"
)

// Result is the outcome of a solve. Values and Objective are only meaningful when Status is Optimal.
type Result struct {
	Status    Status
	Objective float64
	Values    []float64
	// Reason holds the backend message for non optimal outcomes.
	Reason string
}

func (r *Result) Optimal() bool {
	return r != nil && r.Status == Optimal
}
