package gateway

// Fallback messages shown when the service gives no reason of its own.
const (
	AnalyzeFallback = "Failed to analyze repository"
	QueryFallback   = "Failed to get an answer"
)

// AnalysisError reports a failed analyze call. Message is safe to show to
// the user; Status is 0 when no response was received.
type AnalysisError struct {
	Message string
	Status  int
	Err     error
}

func (e *AnalysisError) Error() string { return e.Message }

func (e *AnalysisError) Unwrap() error { return e.Err }

// QueryError reports a failed question call.
type QueryError struct {
	Message string
	Status  int
	Err     error
}

func (e *QueryError) Error() string { return e.Message }

func (e *QueryError) Unwrap() error { return e.Err }

// messageOr returns the server-provided reason or fallback.
func messageOr(server, fallback string) string {
	if server != "" {
		return server
	}
	return fallback
}
