package httpserver

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/and161185/authgate/internal/cookie"
	"github.com/and161185/authgate/internal/gate"
)

// Gate adapts a gate pipeline to gin middleware. A rejection aborts with its envelope;
// otherwise the admitted identity, renewed bundle and session status are stored on the
// context and a renewed cookie is deployed before the handler runs.
func Gate(p gate.Pipeline, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		st := &gate.State{
			Path:          c.Request.URL.Path,
			Email:         c.GetHeader("email"),
			Authorization: c.GetHeader("authorization"),
		}
		st.Cookie, _ = cookie.FromRequest(c.Request)

		if rej := p.Run(c.Request.Context(), st); rej != nil {
			writeError(c, log, rej)
			return
		}
		if st.Bypassed {
			c.Next()
			return
		}

		if st.Identity != nil {
			c.Set(identityKey, st.Identity)
		}
		if st.SessionStatus != "" {
			c.Set(sessionStatusKey, st.SessionStatus)
		}
		if st.Bundle != nil {
			c.Set(bundleKey, st.Bundle)
			if st.Bundle.SessionCookie != "" {
				cookie.Deploy(c.Writer, st.Bundle.SessionCookie)
			}
		}
		c.Next()
	}
}
