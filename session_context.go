package mongomap

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
)

type sessionContextKey struct{}

// WithSession stores a driver session on the context so that code running
// deeper in the call chain, such as index management callbacks, can join
// an ambient causally-consistent session or transaction.
func WithSession(ctx context.Context, session mongo.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, session)
}

// SessionFromContext returns the driver session stored with WithSession.
// It first checks for a session attached by the driver itself through
// mongo.NewSessionContext, then for one stored explicitly.
func SessionFromContext(ctx context.Context) (mongo.Session, bool) {
	if session := mongo.SessionFromContext(ctx); session != nil {
		return session, true
	}
	session, ok := ctx.Value(sessionContextKey{}).(mongo.Session)
	if !ok || session == nil {
		return nil, false
	}
	return session, true
}
