package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Body is the envelope every endpoint answers with. Error carries a stable
// outcome key clients can branch on; Msg is meant for humans.
type Body struct {
	Code    int         `json:"code"`
	Success bool        `json:"success"`
	Error   string      `json:"error,omitempty"`
	Data    interface{} `json:"data"`
	Msg     string      `json:"msg"`
}

func Success(c *gin.Context, data interface{}) {
	JSON(c, http.StatusOK, data, "")
}

func SuccessWithMsg(c *gin.Context, data interface{}, msg string) {
	JSON(c, http.StatusOK, data, msg)
}

func Created(c *gin.Context, data interface{}, msg string) {
	JSON(c, http.StatusCreated, data, msg)
}

func Fail(c *gin.Context, status int, outcome, msg string) {
	c.JSON(status, Body{
		Code:    status,
		Success: false,
		Error:   outcome,
		Data:    gin.H{},
		Msg:     msg,
	})
}

func Abort(c *gin.Context, status int, outcome, msg string) {
	Fail(c, status, outcome, msg)
	c.Abort()
}

func JSON(c *gin.Context, status int, data interface{}, msg string) {
	if data == nil {
		data = gin.H{}
	}
	c.JSON(status, Body{
		Code:    status,
		Success: status < http.StatusBadRequest,
		Data:    data,
		Msg:     msg,
	})
}
