package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/interfaces/http/dto"
)

// BaseHandler holds the response helpers every handler embeds.
type BaseHandler struct {
	log *zap.Logger
}

func NewBaseHandler(log *zap.Logger) BaseHandler {
	return BaseHandler{log: log}
}

// Success writes a 200 with data in the envelope.
func (h *BaseHandler) Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, dto.Response{Success: true, Data: data})
}

// Created writes a 201 with data in the envelope.
func (h *BaseHandler) Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, dto.Response{Success: true, Data: data})
}

// List writes a 200 with data and the pagination meta block.
func (h *BaseHandler) List(c *gin.Context, data interface{}, meta *dto.Meta) {
	c.JSON(http.StatusOK, dto.Response{Success: true, Data: data, Meta: meta})
}

// Error writes an error envelope with an explicit status and code.
func (h *BaseHandler) Error(c *gin.Context, status int, code, message string) {
	c.JSON(status, dto.Response{
		Success:   false,
		Error:     &dto.ErrorBody{Code: code, Message: message},
		RequestID: c.GetString("request_id"),
	})
}

// BadRequest maps a binding failure to a 400 with the first validation
// problem named.
func (h *BaseHandler) BadRequest(c *gin.Context, err error) {
	message := "Invalid request payload"
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		message = "Validation failed on field '" + verrs[0].Field() + "' (" + verrs[0].Tag() + ")"
	}
	h.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", message)
}

// HandleError maps domain errors to their HTTP status and hides everything
// else behind a 500.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	var derr *shared.DomainError
	if errors.As(err, &derr) {
		h.Error(c, dto.StatusForDomainError(derr), derr.Code, derr.Message)
		return
	}

	h.log.Error("unhandled error",
		zap.Error(err),
		zap.String("path", c.Request.URL.Path),
		zap.String("request_id", c.GetString("request_id")),
	)
	h.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
}
