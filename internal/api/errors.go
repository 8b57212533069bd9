package api

import (
	"errors"
	"net/http"

	"f1-penca/internal/middleware"
	appErr "f1-penca/pkg/errors"
	"f1-penca/pkg/logger"
	"f1-penca/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type errorMapping struct {
	err     error
	status  int
	outcome string
}

// errorTable is checked in order; the first sentinel err wraps wins.
var errorTable = []errorMapping{
	{appErr.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
	{appErr.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
	{appErr.ErrAdminNotFound, http.StatusUnauthorized, "invalid_credentials"},
	{appErr.ErrInvalidAdminPassword, http.StatusUnauthorized, "invalid_credentials"},
	{appErr.ErrAdminDisabled, http.StatusForbidden, "admin_disabled"},

	{appErr.ErrUserAlreadyExists, http.StatusConflict, "user_exists"},
	{appErr.ErrUsernameTaken, http.StatusConflict, "username_taken"},
	{appErr.ErrUserNotFound, http.StatusNotFound, "user_not_found"},
	{appErr.ErrInvalidPassword, http.StatusBadRequest, "invalid_password"},
	{appErr.ErrWeakPassword, http.StatusBadRequest, "weak_password"},
	{appErr.ErrInvalidRegistration, http.StatusBadRequest, "invalid_request"},

	// bet rejections are client errors with distinct outcome keys
	{appErr.ErrBettingClosed, http.StatusBadRequest, "betting_closed"},
	{appErr.ErrAlreadyBet, http.StatusBadRequest, "already_bet"},

	{appErr.ErrRaceNotFound, http.StatusNotFound, "race_not_found"},
	{appErr.ErrDriverNotFound, http.StatusNotFound, "driver_not_found"},
	{appErr.ErrInvalidRace, http.StatusBadRequest, "invalid_race"},
	{appErr.ErrInvalidDriver, http.StatusBadRequest, "invalid_driver"},
	{appErr.ErrMappingConflict, http.StatusConflict, "mapping_conflict"},
	{appErr.ErrRaceRoundDuplicate, http.StatusConflict, "round_taken"},

	{appErr.ErrResultsNotAvailable, http.StatusConflict, "results_not_available"},
	{appErr.ErrSyncInProgress, http.StatusConflict, "sync_in_progress"},
	{appErr.ErrNoResults, http.StatusNotFound, "no_results"},
	{appErr.ErrProviderTimeout, http.StatusGatewayTimeout, "provider_timeout"},
	{appErr.ErrProviderFailure, http.StatusBadGateway, "provider_failure"},
}

func classify(err error) (int, string) {
	for _, m := range errorTable {
		if errors.Is(err, m.err) {
			return m.status, m.outcome
		}
	}
	return http.StatusInternalServerError, "internal_error"
}

// writeError answers with the mapped status and outcome. Unknown errors are
// logged and reported without detail.
func writeError(c *gin.Context, err error) {
	status, outcome := classify(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		logger.Log.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.String("requestID", c.GetString(middleware.ContextRequestIDKey)),
			zap.Error(err))
		response.Fail(c, status, outcome, "internal server error")
		return
	}
	response.Fail(c, status, outcome, err.Error())
}

func badRequest(c *gin.Context, msg string) {
	response.Fail(c, http.StatusBadRequest, "invalid_request", msg)
}

// writeBetError reports every ledger rejection as 400; the outcome key tells
// them apart.
func writeBetError(c *gin.Context, err error) {
	if errors.Is(err, appErr.ErrDriverNotFound) {
		response.Fail(c, http.StatusBadRequest, "driver_not_found", err.Error())
		return
	}
	writeError(c, err)
}
