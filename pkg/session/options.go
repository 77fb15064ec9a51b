package session

import (
	"log/slog"
	"time"

	"github.com/aretw0/aquarium/pkg/planner"
)

// Option defines a functional option for configuring a Session.
type Option func(*config)

type config struct {
	logger       *slog.Logger
	view         View
	prefs        PrefStore
	clock        func() time.Time
	confirmer    planner.Confirmer
	pathWrites   bool
	retries      int
	retryBackoff time.Duration
	onError      func(error)
	onPersist    func(PersistResult)
}

func defaultConfig() *config {
	return &config{
		clock:        time.Now,
		confirmer:    planner.NeverConfirm,
		retryBackoff: 200 * time.Millisecond,
	}
}

// WithLogger sets the logger for the session.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithView attaches the surface that shows the connect prompt, the main
// application and every rendered frame.
func WithView(v View) Option {
	return func(c *config) {
		c.view = v
	}
}

// WithPrefs sets where the room identifier is persisted.
func WithPrefs(p PrefStore) Option {
	return func(c *config) {
		c.prefs = p
	}
}

// WithClock overrides the wall clock used for the "today" marker.
func WithClock(clock func() time.Time) Option {
	return func(c *config) {
		c.clock = clock
	}
}

// WithConfirmer sets who approves destructive actions.
// Without one, destructive actions are declined.
func WithConfirmer(confirmer planner.Confirmer) Option {
	return func(c *config) {
		c.confirmer = confirmer
	}
}

// WithPathWrites persists only the mutated date key or vision index instead
// of the whole document.
func WithPathWrites(enabled bool) Option {
	return func(c *config) {
		c.pathWrites = enabled
	}
}

// WithRetries sets how many times a failed write is retried. Zero (the
// default) means a failed write is reported and dropped.
func WithRetries(n int, backoff time.Duration) Option {
	return func(c *config) {
		c.retries = n
		if backoff > 0 {
			c.retryBackoff = backoff
		}
	}
}

// WithErrorHandler registers a callback for subscription and persist failures.
func WithErrorHandler(fn func(error)) Option {
	return func(c *config) {
		c.onError = fn
	}
}

// WithPersistObserver registers a callback that receives the outcome of every write.
func WithPersistObserver(fn func(PersistResult)) Option {
	return func(c *config) {
		c.onPersist = fn
	}
}
