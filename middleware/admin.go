package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/coinpulse/backend/config"
	"github.com/coinpulse/backend/utils"
)

// AdminRequired gates admin endpoints to the configured operator accounts.
// Must run after AuthRequired.
func AdminRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		email, ok := ctx.Get(ContextEmailKey)
		if !ok {
			utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
			ctx.Abort()
			return
		}

		caller, _ := email.(string)
		for _, admin := range config.Get().AdminEmails {
			if strings.EqualFold(admin, caller) {
				ctx.Next()
				return
			}
		}

		utils.Error(ctx, http.StatusForbidden, 40310, "admin access required")
		ctx.Abort()
	}
}
