package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/forkspot/restaurant-reservation/internal/utils"
	"github.com/forkspot/restaurant-reservation/internal/validation"
)

// getUserID extracts the authenticated account id placed in the context
// by the cookie middleware.
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid " + name)
	}
	return id, nil
}

// queryID parses a positive numeric query parameter.
func queryID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.QueryParam(name), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid " + name)
	}
	return id, nil
}

// parsePage reads the page/pageSize query parameters and returns the
// normalized page values plus LIMIT/OFFSET for the query.
func parsePage(c echo.Context) (page, pageSize, limit, offset int) {
	page, _ = strconv.Atoi(c.QueryParam("page"))
	pageSize, _ = strconv.Atoi(c.QueryParam("pageSize"))
	return utils.PageBounds(page, pageSize)
}

// bindAndValidate binds the request body into req and runs struct
// validation. On failure it writes the 400 response and returns false.
func bindAndValidate(c echo.Context, req interface{}) bool {
	if err := c.Bind(req); err != nil {
		_ = c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
		return false
	}
	if err := c.Validate(req); err != nil {
		_ = c.JSON(http.StatusBadRequest, echo.Map{
			"error":   "validation failed",
			"details": validation.Details(err),
		})
		return false
	}
	return true
}

func dbError(c echo.Context) error {
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
}
