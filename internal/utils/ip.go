package utils

import (
	"net"
	"strings"

	"github.com/gin-gonic/gin"
)

// GetRealIP returns the visitor address for logs. Proxy headers are used when
// they hold a parseable IP; otherwise gin's ClientIP decides.
func GetRealIP(c *gin.Context) string {
	if ip := parseIP(c.GetHeader("X-Real-IP")); ip != "" {
		return ip
	}

	// Format: client, proxy1, proxy2, ...
	if forwardedFor := c.GetHeader("X-Forwarded-For"); forwardedFor != "" {
		first, _, _ := strings.Cut(forwardedFor, ",")
		if ip := parseIP(first); ip != "" {
			return ip
		}
	}

	return c.ClientIP()
}

func parseIP(s string) string {
	ip := net.ParseIP(strings.TrimSpace(s))
	if ip == nil {
		return ""
	}
	return ip.String()
}
