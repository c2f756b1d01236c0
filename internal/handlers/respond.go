package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/taskhive-dev/taskhive/internal/apperr"
	"github.com/taskhive-dev/taskhive/internal/events"
	"github.com/taskhive-dev/taskhive/internal/notify"
	"github.com/taskhive-dev/taskhive/internal/storage"
	"github.com/taskhive-dev/taskhive/internal/tasks"
)

// Wired from main at startup.
var (
	TaskManager    *tasks.Manager
	Notifier       *notify.Dispatcher
	EventBus       events.Publisher
	AvatarUploader storage.Uploader
)

func publishEvent(topic, eventType string, data any) {
	if EventBus != nil {
		EventBus.Publish(topic, eventType, data)
	}
}

// respondError maps the error taxonomy onto HTTP statuses. Internal
// errors are logged with context and surfaced as a generic message.
func respondError(ctx *gin.Context, err error) {
	status := http.StatusInternalServerError

	switch apperr.KindOf(err) {
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindForbidden:
		status = http.StatusForbidden
	case apperr.KindValidation:
		status = http.StatusBadRequest
	case apperr.KindConflict:
		status = http.StatusConflict
	case apperr.KindUnauthenticated:
		status = http.StatusUnauthorized
	default:
		log.Printf("Internal error on %s %s: %v", ctx.Request.Method, ctx.FullPath(), err)
	}

	ctx.JSON(status, gin.H{"error": apperr.Message(err)})
}
