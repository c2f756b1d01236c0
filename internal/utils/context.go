package utils

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/taskhive-dev/taskhive/internal/policy"
	"github.com/taskhive-dev/taskhive/internal/types"
)

func GetPrincipal(ctx *gin.Context) (policy.Principal, error) {
	value, exists := ctx.Get(types.ContextUserKey)

	if !exists {
		return policy.Principal{}, fmt.Errorf("user not authenticated")
	}

	principal, ok := value.(policy.Principal)

	if !ok {
		return policy.Principal{}, fmt.Errorf("invalid user type in context")
	}

	return principal, nil
}
