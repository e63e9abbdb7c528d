package restserver

import (
	"net/http"

	"github.com/chrissnell/remoteclimate/internal/log"
	"github.com/google/uuid"
)

// requestIDMiddleware assigns each request an ID, honoring one the client
// already sent, and echoes it on the response for log correlation
func (c *Controller) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", requestID)
		log.Debugf("%s %s [%s]", r.Method, r.URL.Path, requestID)
		next.ServeHTTP(w, r)
	})
}
