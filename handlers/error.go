package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"notify-gateway/utils"
)

var errorLogger *slog.Logger

// SetErrorLogger sets the logger for error handling.
func SetErrorLogger(logger *slog.Logger) {
	errorLogger = logger.With("component", "error_handler")
}

// CustomHTTPErrorHandler is the central error handler for the Echo application.
func CustomHTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	// Attempt to cast the error to our custom AppError type.
	var appErr *utils.AppError
	if !errors.As(err, &appErr) {
		// Echo's own errors (404 routes, bad methods) keep their status.
		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			c.JSON(httpErr.Code, utils.ErrorResponse(fmt.Sprintf("%v", httpErr.Message)))
			return
		}

		if errorLogger != nil {
			errorLogger.Error("Unhandled error occurred",
				"error_type", fmt.Sprintf("%T", err),
				"error_message", err.Error())
		}
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("An unexpected internal error occurred."))
		return
	}

	// If there's an underlying original error, log it for debugging purposes.
	if internalErr := appErr.Unwrap(); internalErr != nil && errorLogger != nil {
		errorLogger.Info("Error handled",
			"status_code", appErr.Code,
			"error_message", appErr.Message,
			slog.Any("internal_error", internalErr))
	}

	// Respond to the client with the code and message defined in the AppError.
	c.JSON(appErr.Code, utils.ErrorResponse(appErr.Message))
}
