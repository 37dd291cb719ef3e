package transport

// Outcome is the typed delivery result every client call returns:
// exactly one of Delivered, Queued, Retry, or Failed(reason). Queued
// is reserved for callers that fold a transport result into their own
// decision to enqueue; the client itself never returns it.
type Outcome string

const (
	Delivered Outcome = "delivered"
	Queued    Outcome = "queued"
	Retry     Outcome = "retry"
	Failed    Outcome = "failed"
)

// Reasons a Failed/Retry result names, distinguishing why a call did
// not land.
const (
	ReasonConnectionRefused = "connection_refused"
	ReasonTimeout           = "timeout"
	ReasonBadStatus         = "bad_status"
	ReasonDecodeError       = "decode_error"
)

// Result pairs an Outcome with an optional Reason and is what every
// Client method returns.
type Result struct {
	Outcome Outcome
	Reason  string
}

func delivered() Result { return Result{Outcome: Delivered} }

// retry marks transient reasons (connection refused, timeout) that are
// worth another attempt without consuming a queue attempt at the
// transport layer. The queue still counts it, but the label itself
// signals "try again soon" to anything inspecting the result.
func retry(reason string) Result { return Result{Outcome: Retry, Reason: reason} }

// failed marks reasons unlikely to resolve by themselves (bad status,
// decode error).
func failed(reason string) Result { return Result{Outcome: Failed, Reason: reason} }
