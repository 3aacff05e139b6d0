package store

import "errors"

// Sentinel errors surfaced by the store. Handlers map these to distinct HTTP
// outcomes; none of them are retried anywhere in the core.
var (
	ErrLockerNotFound  = errors.New("locker not found")
	ErrDeviceNotFound  = errors.New("device not found")
	ErrCommandNotFound = errors.New("command not found")

	// ErrWrongLocker means the credential is valid but the command targets a
	// different locker than the one the device is bound to.
	ErrWrongLocker = errors.New("command targets a different locker")

	// ErrCommandNotClaimable means the command is not in SENT state: either it
	// was never claimed or it already reached a terminal state. Reporting a
	// result twice lands here instead of overwriting the first outcome.
	ErrCommandNotClaimable = errors.New("command is not awaiting a result")
)

// ResultReport carries a device's report for a claimed command. Method,
// Confidence and Message are nil when the device did not supply them.
type ResultReport struct {
	CommandID  string
	Success    bool
	Method     *string
	Confidence *float64
	Message    *string
}

// DefaultAccessMethod is recorded in the audit trail when a device reports a
// result without naming the method it used.
const DefaultAccessMethod = "DEVICE"

// TimeoutAccessMethod marks audit entries written by the staleness sweeper.
const TimeoutAccessMethod = "TIMEOUT"
