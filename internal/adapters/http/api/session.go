package api

import (
	"net/http"

	service "github.com/wildforest/ticketsync/internal/app"
	"github.com/wildforest/ticketsync/internal/domain/ticket"
	"github.com/wildforest/ticketsync/pkg/logger"
)

// SessionCookie carries the UI session id.
const SessionCookie = "ticketsync_session"

// sessionHandler is a handler that runs inside a resolved UI session.
type sessionHandler func(w http.ResponseWriter, r *http.Request, sess *service.Session)

type sessionMiddleware struct {
	deps   Dependencies
	logger logger.Logger
}

// wrap resolves the session from the cookie, issuing a new cookie when the
// session had to be created.
func (m *sessionMiddleware) wrap(next sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "api.session"
		var id string
		if c, err := r.Cookie(SessionCookie); err == nil {
			id = c.Value
		}
		sess, created, err := m.deps.Session(id)
		if err != nil {
			m.logger.Error(r.Context(), "session lookup failed", logger.Error(err))
			writeFailure(w, ticket.WrapKind(op, ErrNoSession, err))
			return
		}
		if created {
			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookie,
				Value:    sess.ID(),
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		next(w, r, sess)
	}
}
