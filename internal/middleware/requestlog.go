package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Jaum1981/cinema-analytics-api/internal/logger"
)

// sensitiveFields are masked in logged request bodies.
var sensitiveFields = []string{"password", "token", "secret", "key"}

// RequestLogger records every handled request through the application
// logger: method, path, status, latency and a sanitised copy of the
// request body for mutating methods. Requests slower than one second
// additionally produce a performance entry.
func RequestLogger(lg *logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			method := req.Method
			path := req.URL.Path

			var requestData any
			switch method {
			case "POST", "PUT", "PATCH":
				requestData = captureBody(c)
			}

			err := next(c)
			if err != nil {
				c.Error(err)
			}
			elapsed := time.Since(start)
			status := c.Response().Status

			detail := map[string]any{}
			if requestData != nil {
				detail["request_data"] = requestData
			}
			contentType := c.Response().Header().Get(echo.HeaderContentType)
			if status >= 400 {
				detail["error_message"] = fmt.Sprintf("HTTP %d error", status)
				detail["response_data"] = map[string]any{"content_type": contentType, "status": "error"}
			} else if status >= 200 && status < 300 {
				detail["response_data"] = map[string]any{"content_type": contentType, "status": "success"}
			}

			lg.Endpoint(method, path, status, elapsed, detail)
			if elapsed > time.Second {
				lg.Timing(method+" "+path, elapsed, map[string]any{"status_code": status})
			}
			return err
		}
	}
}

// captureBody reads the request body for logging and puts it back so the
// handler can read it again. Top-level credential-looking fields are
// masked before the body reaches the log.
func captureBody(c echo.Context) any {
	req := c.Request()
	if req.Body == nil {
		return nil
	}
	body, err := io.ReadAll(req.Body)
	req.Body.Close()
	if err != nil {
		req.Body = io.NopCloser(bytes.NewReader(nil))
		return map[string]any{"note": "Could not capture request data"}
	}
	req.Body = io.NopCloser(bytes.NewReader(body))
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}

	var parsed map[string]any
	if err := json.Unmarshal(body, &parsed); err != nil {
		return map[string]any{"note": "Non-JSON or binary data"}
	}
	for key := range parsed {
		for _, s := range sensitiveFields {
			if strings.EqualFold(key, s) {
				parsed[key] = "***MASKED***"
				break
			}
		}
	}
	return parsed
}
