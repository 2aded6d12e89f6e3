package main

import (
	"context"
	"errors"
	"net"

	"kyklos/internal/api"
)

func formatCLIError(err error) []string {
	if err == nil {
		return nil
	}

	lines := []string{err.Error()}

	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case "unauthorized", "access_denied":
			lines = append(lines, "hint: verify KYKLOS_ADMIN_TOKEN configuration.")
		case "schema_missing":
			lines = append(lines, "hint: run `kyklos migrate` to provision the database schema.")
		case "cycle_not_ready":
			lines = append(lines, "hint: mark all seven days complete before advancing the cycle.")
		}
		if apiErr.Code == "" {
			lines = append(lines, "hint: verify KYKLOS_API_URL points to a kyklos server.")
		}
		if apiErr.Status >= 500 && apiErr.Code != "schema_missing" {
			lines = append(lines, "hint: server returned an internal error; check server logs for details.")
		}
		return uniqueLines(lines)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		lines = append(lines, "hint: request timed out; check server health or increase KYKLOS_HTTP_TIMEOUT.")
		return uniqueLines(lines)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		lines = append(lines,
			"hint: ensure a kyklos server is running at KYKLOS_API_URL.",
			"hint: start a local server manually with: kyklos srv",
			"hint: you can increase KYKLOS_HTTP_TIMEOUT for slower environments.",
		)
		return uniqueLines(lines)
	}

	return uniqueLines(lines)
}

func uniqueLines(lines []string) []string {
	seen := make(map[string]struct{}, len(lines))
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if line == "" {
			continue
		}
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		out = append(out, line)
	}
	return out
}
