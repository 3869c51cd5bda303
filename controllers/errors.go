package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-pos/services"
	"github.com/yeremiapane/restaurant-pos/utils"
)

var (
	badRequestErrors = []error{
		services.ErrEmptyCart,
		services.ErrInvalidQuantity,
		services.ErrEmptyReason,
		services.ErrInvalidPaymentMode,
		services.ErrPortionMismatch,
		services.ErrChoiceMismatch,
		services.ErrDishUnavailable,
	}
	unauthorizedErrors = []error{
		services.ErrInvalidPassword,
		services.ErrInvalidCredentials,
	}
	conflictErrors = []error{
		services.ErrNoActiveSession,
		services.ErrSessionAlreadyActive,
		services.ErrItemAlreadyDeleted,
		services.ErrKOTCompleted,
		services.ErrPendingBillExists,
		services.ErrBillAlreadySettled,
		services.ErrUnbilledKOTs,
		services.ErrStaleBill,
	}
)

func isAny(err error, targets []error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case isAny(err, badRequestErrors):
		return http.StatusBadRequest
	case isAny(err, unauthorizedErrors):
		return http.StatusUnauthorized
	case isAny(err, conflictErrors):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondServiceError writes err with its mapped status. Internal errors are
// logged and hidden from the client.
func respondServiceError(c *gin.Context, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		utils.ErrorLogger.Printf("%s %s: %v", c.Request.Method, c.FullPath(), err)
		c.Error(err)
		utils.RespondError(c, code, errors.New("internal server error"))
		return
	}
	utils.RespondError(c, code, err)
}

// parseID reads a positive numeric route parameter. It writes the 400
// response itself when the parameter is invalid.
func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("invalid %s", name))
		return 0, false
	}
	return uint(id), true
}
