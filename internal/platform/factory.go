package platform

import (
	"context"

	"github.com/aretw0/aquarium/pkg/session"
)

// New builds the store selected by the options and a session on top of it.
// The session is not connected yet; call Connect or Open.
//
//	sess, err := aquarium.New("./planner", aquarium.WithVersioning(false))
//
// The uri argument is adapter-specific (see Init).
func New(uri string, opts ...Option) (*session.Session, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	store, err := initStore(context.Background(), uri, o)
	if err != nil {
		return nil, err
	}

	sessionOpts := make([]session.Option, 0, len(o.session)+1)
	if o.logger != nil {
		sessionOpts = append(sessionOpts, session.WithLogger(o.logger))
	}
	sessionOpts = append(sessionOpts, o.session...)

	return session.New(store, sessionOpts...), nil
}
