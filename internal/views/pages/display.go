package pages

import (
	"strconv"
	"strings"
	"time"
)

// DefaultDash returns an em dash when the provided value is empty or whitespace.
func DefaultDash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "—"
	}
	return value
}

// RoleLabel converts a stored ingredient role into a human readable label.
func RoleLabel(role string) string {
	normalized := strings.ToLower(strings.TrimSpace(role))
	if normalized == "" {
		return DefaultDash("")
	}
	parts := strings.Split(strings.ReplaceAll(normalized, "_", "-"), "-")
	for i := range parts {
		if len(parts[i]) > 0 {
			parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
		}
	}
	return strings.Join(parts, " ")
}

// StatusLabel converts a formulation status into a human readable label.
func StatusLabel(status string) string {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "draft":
		return "Draft"
	case "active":
		return "Active"
	case "archived":
		return "Archived"
	case "template":
		return "Template"
	default:
		return DefaultDash("")
	}
}

// FormatAuditDate renders YYYY-MM-DD timestamps in a friendly day month year format.
func FormatAuditDate(value string) string {
	if strings.TrimSpace(value) == "" {
		return "—"
	}
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		return value
	}
	return parsed.Format("02 Jan 2006")
}

// ParseUint extracts a uint from the provided string, returning zero on failure.
func ParseUint(value string) uint {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0
	}
	parsed, err := strconv.ParseUint(trimmed, 10, 64)
	if err != nil {
		return 0
	}
	return uint(parsed)
}
