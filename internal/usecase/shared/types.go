package shared

// TransitionSource labels who drove a booking status change.
type TransitionSource string

const (
	SourceUser    TransitionSource = "user"
	SourceAdmin   TransitionSource = "admin"
	SourcePayment TransitionSource = "payment"
	SourceSweeper TransitionSource = "sweeper"
)

func (s TransitionSource) String() string {
	return string(s)
}
