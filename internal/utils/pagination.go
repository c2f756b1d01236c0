package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/taskhive-dev/taskhive/internal/types"
)

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
)

// GetPageOptions reads page/limit query params with sane bounds.
func GetPageOptions(ctx *gin.Context) (page, limit, offset int) {
	page = defaultPage
	limit = defaultLimit

	if raw := ctx.Query("page"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			page = n
		}
	}

	if raw := ctx.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	if limit > maxLimit {
		limit = maxLimit
	}

	return page, limit, (page - 1) * limit
}

func PageMeta(total int64, page, limit int) types.PageMeta {
	totalPages := int(total) / limit
	if int(total)%limit != 0 {
		totalPages++
	}

	return types.PageMeta{
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}
}
