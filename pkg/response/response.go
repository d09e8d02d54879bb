package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// FieldError is one element of the {"errors":[...]} body returned for
// validation and credential failures.
type FieldError struct {
	Msg   string `json:"msg"`
	Param string `json:"param,omitempty"`
}

type errorBody struct {
	Errors []FieldError `json:"errors"`
}

type msgBody struct {
	Msg string `json:"msg"`
}

// Errors writes an {"errors":[...]} body and aborts the request.
func Errors(c *gin.Context, status int, errs ...FieldError) {
	c.AbortWithStatusJSON(status, errorBody{Errors: errs})
}

// Error writes a single-message {"errors":[{"msg":...}]} body.
func Error(c *gin.Context, status int, msg string) {
	Errors(c, status, FieldError{Msg: msg})
}

// Msg writes a plain {"msg":...} body, used for not-found style replies.
func Msg(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, msgBody{Msg: msg})
}

// ServerError hides internal detail from the caller; the cause is logged
// server-side before calling this.
func ServerError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, "Server error")
}
