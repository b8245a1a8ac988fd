package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/kenresoft/wine-delivery-backend-sub000/pkg/apperr"
)

// envelope is the uniform response shape: {"success": true, "data": ...}
// on success, {"success": false, "error": {...}} on failure.
type envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *errorBody `json:"error,omitempty"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respond(c *gin.Context, status int, data any) {
	c.JSON(status, envelope{Success: true, Data: data})
}

// respondErr maps the error taxonomy to HTTP at this single boundary.
// Unexpected errors are logged with their cause and surfaced as a generic
// internal failure.
func respondErr(c *gin.Context, err error) {
	ae := apperr.From(err)
	if ae.Code == apperr.CodeInternal {
		zctx.From(c.Request.Context()).Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}
	c.JSON(ae.Status, envelope{
		Success: false,
		Error:   &errorBody{Code: string(ae.Code), Message: ae.Message},
	})
}

func respondInvalid(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, envelope{
		Success: false,
		Error:   &errorBody{Code: string(apperr.CodeInvalid), Message: msg},
	})
}
