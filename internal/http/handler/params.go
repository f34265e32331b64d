package handler

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"pdfreview/internal/http/middleware"
	"pdfreview/internal/model"
)

// paramError is a 400 with a specific code, written by the handler that hit it.
type paramError struct {
	code    string
	message string
}

func (e *paramError) Error() string { return e.message }

func (e *paramError) write(c *fiber.Ctx) error {
	return writeError(c, fiber.StatusBadRequest, e.code, e.message)
}

// queryInt parses an optional integer query parameter; absent means 0.
func queryInt(c *fiber.Ctx, key string) (int, *paramError) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &paramError{code: "INVALID_" + strings.ToUpper(key), message: "invalid " + key}
	}
	return v, nil
}

// parseDate accepts YYYY-MM-DD or RFC 3339.
func parseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(model.PeriodLayout, raw); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// optionalDate parses a date field that may be absent.
func optionalDate(raw, field string) (*time.Time, *paramError) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	t, ok := parseDate(raw)
	if !ok {
		return nil, &paramError{code: "INVALID_DATE", message: "invalid '" + field + "': expected YYYY-MM-DD"}
	}
	return &t, nil
}

func queryBool(c *fiber.Ctx, key string) (*bool, *paramError) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, &paramError{code: "INVALID_" + strings.ToUpper(key), message: "invalid " + key}
	}
	return &v, nil
}

// callerID returns the authenticated user. Routes using it sit behind middleware.Authenticate.
func callerID(c *fiber.Ctx) (string, error) {
	id, ok := middleware.IdentityFrom(c)
	if !ok || id.UserID == "" {
		return "", fiber.NewError(fiber.StatusUnauthorized, "authorization token is required")
	}
	return id.UserID, nil
}
