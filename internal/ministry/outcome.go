package ministry

// Outcome classifies a delivery attempt so the caller can decide between
// acknowledging, retrying with backoff, or dead-lettering.
type Outcome string

const (
	// OutcomeSuccess means the ministry accepted the submission (HTTP 2xx).
	OutcomeSuccess Outcome = "success"
	// OutcomeTransient means the attempt failed in a retryable way
	// (HTTP 5xx, timeout, connection error).
	OutcomeTransient Outcome = "transient_failure"
	// OutcomePermanent means the ministry rejected the submission
	// (HTTP 4xx); retrying cannot succeed.
	OutcomePermanent Outcome = "permanent_failure"
)

// classifyStatus maps an HTTP status code to a delivery outcome.
// Transport-level errors (timeouts, connection failures) never reach this
// function; the client reports those as OutcomeTransient directly.
func classifyStatus(statusCode int) Outcome {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return OutcomeSuccess
	case statusCode >= 400 && statusCode < 500:
		return OutcomePermanent
	default:
		return OutcomeTransient
	}
}
