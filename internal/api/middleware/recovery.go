package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/cabanga/smail/internal/api/dto/common"
	"github.com/cabanga/smail/internal/i18n"
	"github.com/cabanga/smail/internal/logging"

	"github.com/gin-gonic/gin"
)

// Recovery converts panics into a generic localized 500 response. The full
// detail stays server-side; the caller never sees internals.
func Recovery(tr *i18n.Translator) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logging.GetGlobalLogger().Error("panic recovered: %v\n%s", err, debug.Stack())
				c.AbortWithStatusJSON(http.StatusInternalServerError,
					common.NewErrorResult(tr.Get("error_internal")))
			}
		}()

		c.Next()
	}
}
