package handlers

import (
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"stockroom/internal/common"
)

// respondError converts a service error into the API's {"error": ...}
// body. Internal failures are logged with detail and answered generically.
func respondError(c echo.Context, err error) error {
	status := common.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		log.Printf("%s %s failed: %v", c.Request().Method, c.Request().URL.Path, err)
	}
	return c.JSON(status, echo.Map{"error": common.UserMessage(err)})
}
