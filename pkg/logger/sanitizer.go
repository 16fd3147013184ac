package logger

import (
	"net/http"
	"regexp"
	"strings"
)

// Sensitive field patterns to filter from logs
var (
	tokenPattern     = regexp.MustCompile(`(?i)(token|jwt|bearer)[\s:=]+[^\s]+`)
	signaturePattern = regexp.MustCompile(`(?i)(signature)[\s:=]+[^\s]+`)
	secretPattern    = regexp.MustCompile(`(?i)(secret|private[_-]?key)[\s:=]+[^\s]+`)
	hexKeyPattern    = regexp.MustCompile(`\b0x[0-9a-fA-F]{64,}\b`)
)

const redactedPlaceholder = "[REDACTED]"

var sensitiveKeys = []string{
	"authorization",
	"signature",
	"token", "jwt", "bearer",
	"secret", "private_key", "private-key",
}

// SanitizeLogMessage removes sensitive information from log messages
func SanitizeLogMessage(message string) string {
	message = tokenPattern.ReplaceAllString(message, "${1}="+redactedPlaceholder)
	message = signaturePattern.ReplaceAllString(message, "${1}="+redactedPlaceholder)
	message = secretPattern.ReplaceAllString(message, "${1}="+redactedPlaceholder)

	// Bare signatures and private keys
	return hexKeyPattern.ReplaceAllString(message, redactedPlaceholder)
}

// SanitizeHeaders flattens request headers for logging, redacting
// credentials and signatures.
func SanitizeHeaders(h http.Header) map[string]string {
	sanitized := make(map[string]string, len(h))
	for k, v := range h {
		if isSensitive(k) {
			sanitized[k] = redactedPlaceholder
			continue
		}
		sanitized[k] = strings.Join(v, ",")
	}
	return sanitized
}

func isSensitive(key string) bool {
	lowerKey := strings.ToLower(key)
	for _, sensitiveKey := range sensitiveKeys {
		if strings.Contains(lowerKey, sensitiveKey) {
			return true
		}
	}
	return false
}
