package routes

import (
	"context"
	"errors"
	"net/http"

	"erp-helpdesk-assistant/internal/logger"
	"erp-helpdesk-assistant/internal/query"
	"erp-helpdesk-assistant/middleware"
	"erp-helpdesk-assistant/models"
	"erp-helpdesk-assistant/utils"

	"github.com/gin-gonic/gin"
)

// Fixed messages for failures the user can see.
const (
	unavailableMessage = "The assistant is temporarily unavailable. Please try again later."
	internalMessage    = "Something went wrong while answering. Please try again later."
)

// Asker answers one question.
type Asker interface {
	Ask(ctx context.Context, question string) (*query.Answer, error)
}

func SetupChatRoutes(router *gin.Engine, asker Asker) {
	router.POST("/chat", handleChat(asker))
}

func handleChat(asker Asker) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.ChatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "A question is required.", nil)
			return
		}

		answer, err := asker.Ask(c.Request.Context(), req.Question)
		if err != nil {
			var genErr *query.GenerationError
			switch {
			case errors.Is(err, query.ErrEmptyQuestion):
				utils.RespondWithBadRequest(c, "A question is required.", nil)
			case errors.As(err, &genErr):
				utils.RespondWithServiceUnavailable(c, "generation_unavailable", unavailableMessage)
			default:
				logger.Error("Chat request failed", "request_id", middleware.GetRequestID(c), "error", err)
				utils.RespondWithInternalError(c, internalMessage)
			}
			return
		}

		logger.Debug("Question answered", "request_id", middleware.GetRequestID(c), "state", string(answer.State))
		c.JSON(http.StatusOK, models.ChatResponse{Answer: answer.Text})
	}
}
