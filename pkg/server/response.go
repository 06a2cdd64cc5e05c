package server

import (
	"github.com/gin-gonic/gin"
)

const (
	codeOK   = 0
	codeFail = -1

	requestIDKey    = "request_id"
	requestIDHeader = "X-Request-ID"
)

// Response is the envelope of every API reply.
type Response struct {
	Code      int    `json:"code"`
	Msg       string `json:"msg"`
	RequestID string `json:"request_id,omitempty"`
	Data      any    `json:"data,omitempty"`
}

func success(c *gin.Context, status int, data any) {
	c.JSON(status, Response{
		Code:      codeOK,
		Msg:       "success",
		RequestID: c.GetString(requestIDKey),
		Data:      data,
	})
}

func fail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, Response{
		Code:      codeFail,
		Msg:       msg,
		RequestID: c.GetString(requestIDKey),
	})
}
