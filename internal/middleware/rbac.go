package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/taskhive-dev/taskhive/internal/policy"
	"github.com/taskhive-dev/taskhive/internal/types"
)

// RequireManager gates routes whose decision depends only on the role
// (team, project and analytics management). Checks that also depend on
// entity state live in the lifecycle manager instead.
func RequireManager(check func(policy.Principal) policy.Decision) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		value, exists := ctx.Get(types.ContextUserKey)

		if !exists {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
			return
		}

		principal, ok := value.(policy.Principal)

		if !ok {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
			return
		}

		if d := check(principal); !d.Allowed {
			ctx.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": d.Reason})
			return
		}

		ctx.Next()
	}
}
