package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RequestLogger logs each request after its handler finishes, including
// where the relay credential came from. WebSocket upgrades are
// long-lived, so for /ws the duration field covers the whole session,
// not handler latency.
func RequestLogger(logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		evt := logger.Info()
		if len(c.Errors) > 0 {
			evt = logger.Error().Str("errors", c.Errors.String())
		}
		evt.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Str("credential_source", credentialSource(c)).
			Dur("duration", time.Since(start)).
			Msg("request")
	}
}

// credentialSource reports how the client supplied its credential, for
// the request log only. The token value itself is never logged.
func credentialSource(c *gin.Context) string {
	switch {
	case c.GetHeader("Authorization") != "":
		return "header"
	case c.Query("token") != "":
		return "query"
	default:
		return "none"
	}
}
