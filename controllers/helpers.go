package controllers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/table-session/apperr"
	"github.com/yeremiapane/table-session/utils"
)

// SessionTokenHeader carries the table session token of guest requests.
const SessionTokenHeader = "X-Session-Token"

// respondServiceError writes a domain error with its status and code. Anything
// else is logged and reported as an internal error without details.
func respondServiceError(c *gin.Context, err error) {
	if appErr, ok := apperr.From(err); ok {
		utils.RespondErrorCode(c, appErr.Status, appErr.Code, appErr.Message)
		return
	}
	utils.ErrorLogger.WithFields(logrus.Fields{
		"path":  c.FullPath(),
		"error": err,
	}).Error("request failed")
	utils.RespondErrorCode(c, http.StatusInternalServerError, "internal", "internal error")
}

func respondBindError(c *gin.Context, err error) {
	utils.RespondErrorCode(c, http.StatusBadRequest, apperr.ErrValidation.Code, err.Error())
}

// paramID parses a positive numeric path parameter.
func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		utils.RespondErrorCode(c, http.StatusBadRequest, apperr.ErrValidation.Code, fmt.Sprintf("invalid %s", name))
		return 0, false
	}
	return uint(id), true
}

// sessionToken reads the guest token from the header or the "token" query.
func sessionToken(c *gin.Context) (string, bool) {
	token := c.GetHeader(SessionTokenHeader)
	if token == "" {
		token = c.Query("token")
	}
	if token == "" {
		respondServiceError(c, apperr.ErrInvalidToken)
		return "", false
	}
	return token, true
}

// SessionScope binds idempotency keys to the guest session token.
func SessionScope(c *gin.Context) string {
	token := c.GetHeader(SessionTokenHeader)
	if token == "" {
		token = c.Query("token")
	}
	return token
}
