package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"investcore/internal/middleware"
	"investcore/internal/services/investment"
)

var (
	svc          *investment.Service
	jwtManager   *middleware.JWTManager
	cookieSecure bool
)

// Setup wires the handlers to the investment service and token issuer.
func Setup(service *investment.Service, tokens *middleware.JWTManager, secureCookie bool) {
	svc = service
	jwtManager = tokens
	cookieSecure = secureCookie
}

// ErrorBody is the error half of the response envelope.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Envelope is the single response shape of every JSON endpoint.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
}

func respondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

func respondStatus(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Envelope{Success: true, Data: data})
}

func respondFail(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, Envelope{Success: false, Error: &ErrorBody{Code: code, Message: message}})
}

func badRequest(c *gin.Context, message string) {
	respondFail(c, http.StatusBadRequest, string(investment.KindValidation), message)
}

// respondError maps a service error to its HTTP status. Anything unclassified is a 500.
func respondError(c *gin.Context, err error) {
	var svcErr *investment.Error
	if !errors.As(err, &svcErr) {
		logrus.WithField("path", c.FullPath()).Errorf("Unhandled error: %v", err)
		respondFail(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		return
	}

	status := statusFor(svcErr.Kind)
	message := svcErr.Message
	if status >= http.StatusInternalServerError {
		logrus.WithField("path", c.FullPath()).Errorf("Request failed: %v", err)
	}
	if svcErr.Kind == investment.KindDuplicateAccrual {
		message = "internal server error"
	}
	respondFail(c, status, string(svcErr.Kind), message)
}

func statusFor(kind investment.Kind) int {
	switch kind {
	case investment.KindInvalidTransition:
		return http.StatusConflict
	case investment.KindInvalidDate, investment.KindValidation:
		return http.StatusBadRequest
	case investment.KindNotFound:
		return http.StatusNotFound
	case investment.KindPersistenceFailure:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		badRequest(c, "Invalid ID format")
		return 0, false
	}
	return uint(id), true
}
