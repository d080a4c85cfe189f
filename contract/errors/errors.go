package errors

// Error codes for the binding contracts. Keep stable; used across adapters and the binder.
const (
	ErrCodeTopologyMismatch  = "eventer.topology_mismatch"
	ErrCodeSubscribeFailed   = "eventer.subscribe_failed"
	ErrCodeUnsubscribeFailed = "eventer.unsubscribe_failed"
	ErrCodeNotConnected      = "eventer.not_connected"
	ErrCodeEmitterClosed     = "eventer.emitter_closed"
)

// Code returns an error value that carries only a code string.
// It implements error by returning the code string in Error().
func Code(code string) error { return codedError(code) }

type codedError string

func (e codedError) Error() string { return string(e) }

var (
	ErrTopologyMismatch  = Code(ErrCodeTopologyMismatch)
	ErrSubscribeFailed   = Code(ErrCodeSubscribeFailed)
	ErrUnsubscribeFailed = Code(ErrCodeUnsubscribeFailed)
	ErrNotConnected      = Code(ErrCodeNotConnected)
	ErrEmitterClosed     = Code(ErrCodeEmitterClosed)
)
