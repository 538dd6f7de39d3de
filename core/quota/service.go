package quota

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/dmitrymomot/billforge/core/logger"
)

// DefaultMaxRetries bounds the compare-and-swap loop.
const DefaultMaxRetries = 5

type ledger struct {
	store  LedgerStore
	policy Policy
}

// Service answers usage queries and admission attempts for all identity classes.
// Safe for concurrent use.
type Service struct {
	ledgers    map[Class]ledger
	now        func() time.Time
	maxRetries int
	logger     *slog.Logger
	recorder   Recorder
}

// NewService creates a quota service. At least one ledger must be configured.
func NewService(opts ...Option) (*Service, error) {
	s := &Service{
		ledgers:    make(map[Class]ledger),
		now:        time.Now,
		maxRetries: DefaultMaxRetries,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		recorder:   nopRecorder{},
	}
	for _, opt := range opts {
		opt(s)
	}

	if len(s.ledgers) == 0 {
		return nil, ErrNoLedgers
	}
	for class, l := range s.ledgers {
		if l.store == nil {
			return nil, fmt.Errorf("quota: nil store for class %q", class)
		}
		if err := l.policy.Validate(); err != nil {
			return nil, fmt.Errorf("class %q: %w", class, err)
		}
	}
	return s, nil
}

// Policy returns the policy configured for class.
func (s *Service) Policy(class Class) (Policy, error) {
	l, ok := s.ledgers[class]
	if !ok {
		return Policy{}, ErrUnknownClass
	}
	return l.policy, nil
}

// Peek returns current usage after applying the window reset.
// It never increments the count. A reset or a first-seen entry is persisted.
func (s *Service) Peek(ctx context.Context, id Identity) (Snapshot, error) {
	l, ok := s.ledgers[id.Class]
	if !ok {
		return Snapshot{}, ErrUnknownClass
	}

	ev, err := s.apply(ctx, l, id, false)
	if err != nil {
		s.recorder.Decision(id.Class, OutcomeError)
		return Snapshot{}, err
	}
	if ev.Reset {
		s.recorder.Decision(id.Class, OutcomeReset)
	}
	return NewSnapshot(ev.Entry, l.policy), nil
}

// TryConsume spends one credit if the identity is under its limit.
// A denial leaves the count untouched and is reported with Allowed=false.
func (s *Service) TryConsume(ctx context.Context, id Identity) (Decision, error) {
	l, ok := s.ledgers[id.Class]
	if !ok {
		return Decision{}, ErrUnknownClass
	}

	ev, err := s.apply(ctx, l, id, true)
	if err != nil {
		s.recorder.Decision(id.Class, OutcomeError)
		return Decision{}, err
	}
	if ev.Reset {
		s.recorder.Decision(id.Class, OutcomeReset)
	}

	if !ev.Allowed {
		s.recorder.Decision(id.Class, OutcomeDenied)
		return Decision{Allowed: false, Usage: NewSnapshot(ev.Entry, l.policy)}, nil
	}

	s.recorder.Decision(id.Class, OutcomeAllowed)
	return Decision{Allowed: true, Usage: NewSnapshot(ev.Entry, l.policy)}, nil
}

// apply runs the load, evaluate and write cycle. When consume is set and the
// evaluation allows it, the returned entry already carries the increment.
func (s *Service) apply(ctx context.Context, l ledger, id Identity, consume bool) (Evaluation, error) {
	cs, conditional := l.store.(ConditionalStore)
	op := "peek"
	if consume {
		op = "consume"
	}

	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return Evaluation{}, &StorageError{Op: op, Err: err}
		}

		now := s.clock()
		stored, err := l.store.Load(ctx, id.Key)
		found, malformed := true, false
		switch {
		case err == nil:
		case errors.Is(err, ErrEntryNotFound):
			found = false
		case errors.Is(err, ErrMalformedEntry):
			found, malformed = false, true
			s.logger.WarnContext(ctx, "discarding malformed ledger entry",
				logger.Component("quota"),
				logger.Class(id.Class.String()),
				logger.Error(err),
			)
		case errors.Is(err, ErrUnknownIdentity):
			return Evaluation{}, err
		default:
			return Evaluation{}, &StorageError{Op: op + ".load", Err: err}
		}

		current := stored
		if !found {
			current = NewEntry(now)
		}

		ev := Evaluate(current, now, l.policy)
		next := ev.Entry
		if consume && ev.Allowed {
			next.Count++
		}

		if found && next.Equal(stored) {
			ev.Entry = next
			return ev, nil
		}

		if !conditional || malformed {
			if err := l.store.Save(ctx, id.Key, next); err != nil {
				if errors.Is(err, ErrUnknownIdentity) {
					return Evaluation{}, err
				}
				return Evaluation{}, &StorageError{Op: op + ".save", Err: err}
			}
			ev.Entry = next
			return ev, nil
		}

		var expected *Entry
		if found {
			expected = &stored
		}
		swapped, err := cs.CompareAndSwap(ctx, id.Key, expected, next)
		if err != nil {
			if errors.Is(err, ErrUnknownIdentity) {
				return Evaluation{}, err
			}
			return Evaluation{}, &StorageError{Op: op + ".swap", Err: err}
		}
		if swapped {
			ev.Entry = next
			return ev, nil
		}

		s.logger.DebugContext(ctx, "ledger entry changed concurrently, retrying",
			logger.Component("quota"),
			logger.Class(id.Class.String()),
			logger.RetryCount(attempt+1),
		)
	}

	return Evaluation{}, &StorageError{Op: op, Err: ErrConflict}
}

func (s *Service) clock() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}
