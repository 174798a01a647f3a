package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/weiawesome/wes-io-live/thumbnail-service/internal/domain"
	"github.com/weiawesome/wes-io-live/thumbnail-service/internal/processor"
	pkglog "github.com/weiawesome/wes-io-live/thumbnail-service/pkg/log"
	"github.com/weiawesome/wes-io-live/thumbnail-service/pkg/response"
)

// Status values reported for push requests that did not fail.
const (
	StatusCreated  = "created"
	StatusSkipped  = "skipped"
	StatusFiltered = "filtered"
)

// PushHandler serves Pub/Sub push deliveries of storage notifications.
// Any non-2xx answer makes Pub/Sub redeliver the message.
type PushHandler struct {
	handler processor.EventHandler
	filter  domain.ObjectFilter
}

// PushResult is the data field of a successful push response.
type PushResult struct {
	Status    string            `json:"status"`
	Thumbnail *domain.ObjectRef `json:"thumbnail,omitempty"`
	Width     int               `json:"width,omitempty"`
	Height    int               `json:"height,omitempty"`
}

// NewPushHandler creates a new push handler.
func NewPushHandler(h processor.EventHandler, filter domain.ObjectFilter) *PushHandler {
	return &PushHandler{
		handler: h,
		filter:  filter,
	}
}

// RegisterRoutes mounts the push and health endpoints.
func (h *PushHandler) RegisterRoutes(r gin.IRouter) {
	r.POST("/", h.HandlePush)
	r.POST("/pubsub/push", h.HandlePush)
	r.GET("/health", h.HealthCheck)
}

// HandlePush handles POST /pubsub/push
func (h *PushHandler) HandlePush(c *gin.Context) {
	var envelope domain.PushEnvelope
	if err := c.ShouldBindJSON(&envelope); err != nil {
		response.BadRequest(c, "invalid push envelope: "+err.Error())
		return
	}

	ctx := c.Request.Context()
	l := pkglog.Ctx(ctx).With().
		Str(pkglog.FieldTransport, "http").
		Str(pkglog.FieldMessageID, envelope.Message.MessageID).
		Str(pkglog.FieldSubscription, envelope.Subscription).
		Logger()
	ctx = pkglog.WithLogger(ctx, l)

	if skip, ref := h.filter.Skips(&envelope.Message); skip {
		l.Debug().Str(pkglog.FieldBucket, ref.Bucket).Str(pkglog.FieldObject, ref.Name).Msg("object filtered out")
		response.Success(c, PushResult{Status: StatusFiltered})
		return
	}

	result, err := h.handler.HandleEvent(ctx, &envelope.Message)
	if err != nil {
		_ = c.Error(err)
		if errors.Is(err, domain.ErrMalformedPayload) {
			response.UnprocessableEntity(c, err.Error())
			return
		}
		response.InternalError(c, "failed to create thumbnail")
		return
	}

	if result == nil {
		response.Success(c, PushResult{Status: StatusSkipped})
		return
	}

	response.Success(c, PushResult{
		Status:    StatusCreated,
		Thumbnail: &result.Thumbnail,
		Width:     result.Width,
		Height:    result.Height,
	})
}

// HealthCheck handles GET /health
func (h *PushHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
