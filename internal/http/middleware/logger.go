package middleware

import (
	"encoding/json"
	"io"
	"os"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Logger is a middleware that logs each HTTP request in JSON format to stdout.
func Logger() fiber.Handler {
	return LoggerWithWriter(os.Stdout, time.UTC)
}

// LoggerWithWriter writes one JSON object per request to w.
// Fields:
// - request_id (taken from context locals set by RequestID middleware)
// - method
// - path
// - status
// - latency (in milliseconds, as float)
// - user_id (when the request was authenticated)
// - ts (RFC3339 in loc)
func LoggerWithWriter(w io.Writer, loc *time.Location) fiber.Handler {
	var mu sync.Mutex
	enc := json.NewEncoder(w)

	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		// Let the error handler settle the status before reading it
		status := c.Response().StatusCode()
		if err != nil {
			if hErr := c.App().ErrorHandler(c, err); hErr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
			status = c.Response().StatusCode()
		}

		rid, _ := c.Locals(RequestIDLocalKey).(string)
		entry := map[string]any{
			"request_id": rid,
			"method":     c.Method(),
			"path":       c.Path(),
			"status":     status,
			"latency":    float64(time.Since(start).Microseconds()) / 1000,
			"ts":         start.In(loc).Format(time.RFC3339),
		}
		if id, ok := IdentityFrom(c); ok {
			entry["user_id"] = id.UserID
		}

		mu.Lock()
		_ = enc.Encode(entry)
		mu.Unlock()

		return nil
	}
}
