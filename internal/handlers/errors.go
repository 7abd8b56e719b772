package handlers

import (
	"errors"
	"net/http"

	"github.com/anonto42/socialposts/backend/internal/models"
	"github.com/anonto42/socialposts/backend/internal/repositories"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

// ErrorHandler renders every error returned by a handler or middleware.
// String messages become {"msg": ...}, structured messages are written as-is
// and anything that is not an *echo.HTTPError is logged and reported as an
// opaque 500.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	var body interface{} = models.MessageResponse{Msg: "Server Error"}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		switch m := he.Message.(type) {
		case string:
			body = models.MessageResponse{Msg: m}
		case nil:
			body = models.MessageResponse{Msg: http.StatusText(status)}
		default:
			body = m
		}
		if he.Internal != nil {
			log.WithFields(requestFields(c)).WithError(he.Internal).Debug("request rejected")
		}
		if status >= http.StatusInternalServerError {
			log.WithFields(requestFields(c)).WithError(err).Error("request failed")
			body = models.MessageResponse{Msg: "Server Error"}
		}
	} else {
		log.WithFields(requestFields(c)).WithError(err).Error("request failed")
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, body)
	}
	if err != nil {
		log.WithError(err).Error("write error response")
	}
}

func requestFields(c echo.Context) log.Fields {
	return log.Fields{
		"method":     c.Request().Method,
		"path":       c.Path(),
		"request_id": c.Response().Header().Get(echo.HeaderXRequestID),
	}
}

// postLookupError maps store lookup failures to their HTTP responses.
func postLookupError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrInvalidID):
		return echo.NewHTTPError(http.StatusNotFound, "Not a valid ID")
	case errors.Is(err, repositories.ErrPostNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Post not found")
	default:
		return err
	}
}

func invalidPayload(err error) error {
	return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload").SetInternal(err)
}
