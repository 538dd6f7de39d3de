package quota

import (
	"log/slog"
	"time"
)

// Option configures a Service.
type Option func(*Service)

// WithLedger binds a store and a policy to an identity class.
func WithLedger(class Class, store LedgerStore, policy Policy) Option {
	return func(s *Service) {
		s.ledgers[class] = ledger{store: store, policy: policy}
	}
}

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithMaxRetries sets how many times a conflicting conditional write is retried.
func WithMaxRetries(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.maxRetries = n
		}
	}
}

// WithLogger sets the logger used for warnings about malformed entries and conflicts.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRecorder sets the decision recorder.
func WithRecorder(r Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.recorder = r
		}
	}
}
