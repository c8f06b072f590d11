package utils

import (
	"fmt"
	"log"
	"strings"
)

// LogEvent prints one line per domain event: module, action, request id and a
// short summary. Background work without a request logs request_id=-.
// Never pass credentials or raw payloads as message.
func LogEvent(requestID, module, action, message string) {
	req := strings.TrimSpace(requestID)
	if req == "" {
		req = "-"
	}
	log.Printf("[%s] action=%s request_id=%s msg=%s", strings.ToUpper(module), action, req, message)
}

// LogEventf is LogEvent with a formatted message.
func LogEventf(requestID, module, action, format string, args ...any) {
	LogEvent(requestID, module, action, fmt.Sprintf(format, args...))
}
