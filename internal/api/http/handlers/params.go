package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	apperrors "github.com/spec-kit/sla-ticket-service/pkg/util/errorutil"
)

// accepted layouts for date query parameters, most specific first
var timeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

func idParam(c *fiber.Ctx, name string) (string, error) {
	raw := strings.TrimSpace(c.Params(name))
	if _, err := uuid.Parse(raw); err != nil {
		return "", apperrors.NewValidationError("invalid "+name, map[string]any{name: raw})
	}
	return raw, nil
}

func validUUID(values map[string]string) error {
	details := map[string]any{}
	for field, value := range values {
		if _, err := uuid.Parse(strings.TrimSpace(value)); err != nil {
			details[field] = "must be a uuid"
		}
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid payload", details)
	}
	return nil
}

func optionalUUIDQuery(c *fiber.Ctx, name string) (*string, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	if _, err := uuid.Parse(raw); err != nil {
		return nil, apperrors.NewValidationError("invalid "+name, map[string]any{name: raw})
	}
	return &raw, nil
}

func parseTime(val string) (time.Time, bool) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, val); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func requiredTimeQuery(c *fiber.Ctx, name string) (time.Time, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return time.Time{}, apperrors.NewValidationError(name+" required", nil)
	}
	t, ok := parseTime(raw)
	if !ok {
		return time.Time{}, apperrors.NewValidationError("invalid "+name, map[string]any{name: raw})
	}
	return t, nil
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}
