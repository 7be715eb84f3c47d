package audit

import (
	"bytes"
	"encoding/json"
	"io"
	"net"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	// CurrentUserKey is where the auth middleware stores the verified identity.
	CurrentUserKey = "currentUser"

	requestBodyKey = "auditRequestBody"

	// Bodies larger than this are not captured for auditing; the sanitizer
	// would truncate most of it anyway.
	maxCapturedBody = 64 << 10
)

// CaptureRequestBody tees small JSON request bodies into the gin context so
// the recorder can include a sanitized copy. The body remains readable by the
// handler in full, including anything past the capture limit.
func CaptureRequestBody() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil &&
			strings.Contains(c.ContentType(), "application/json") {
			raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxCapturedBody+1))
			if err == nil {
				// Rejoin the read prefix with the unread tail so an
				// oversized body reaches the handler intact.
				c.Request.Body = io.NopCloser(io.MultiReader(bytes.NewReader(raw), c.Request.Body))
				if len(raw) > 0 && len(raw) <= maxCapturedBody {
					var parsed interface{}
					if json.Unmarshal(raw, &parsed) == nil {
						c.Set(requestBodyKey, parsed)
					}
				}
			}
		}
		c.Next()
	}
}

func capturedBody(c *gin.Context) interface{} {
	body, ok := c.Get(requestBodyKey)
	if !ok {
		return map[string]interface{}{}
	}
	return body
}

// clientIP resolves the caller address through the trust chain: first
// X-Forwarded-For hop, then X-Real-IP, then the transport peer address. The
// chosen source is reported so forensics can judge how much to trust it.
func clientIP(c *gin.Context) (ip string, forwardedFor string, source string) {
	forwardedFor = c.GetHeader("X-Forwarded-For")
	if forwardedFor != "" {
		for _, hop := range strings.Split(forwardedFor, ",") {
			hop = strings.TrimSpace(hop)
			if hop != "" {
				return hop, forwardedFor, "x-forwarded-for"
			}
		}
	}

	if realIP := strings.TrimSpace(c.GetHeader("X-Real-IP")); realIP != "" {
		return realIP, "", "x-real-ip"
	}

	remote := c.Request.RemoteAddr
	if host, _, err := net.SplitHostPort(remote); err == nil {
		remote = host
	}
	if remote == "" {
		return "unknown", "", "request-ip"
	}
	return remote, "", "request-ip"
}

// buildRequestContext assembles the forensic context blob: a fixed header
// set, sanitized query/body/path parameters, and the caller's extra context.
func buildRequestContext(c *gin.Context, extra map[string]interface{}) string {
	query := map[string]interface{}{}
	for key, values := range c.Request.URL.Query() {
		if len(values) == 1 {
			query[key] = values[0]
		} else {
			entries := make([]interface{}, len(values))
			for i, v := range values {
				entries[i] = v
			}
			query[key] = entries
		}
	}

	params := map[string]interface{}{}
	for _, p := range c.Params {
		params[p.Key] = p.Value
	}

	if extra == nil {
		extra = map[string]interface{}{}
	}

	context := map[string]interface{}{
		"host":            headerOrNil(c, "Host"),
		"origin":          headerOrNil(c, "Origin"),
		"referer":         headerOrNil(c, "Referer"),
		"forwarded":       headerOrNil(c, "Forwarded"),
		"acceptLanguage":  headerOrNil(c, "Accept-Language"),
		"contentType":     headerOrNil(c, "Content-Type"),
		"contentLength":   headerOrNil(c, "Content-Length"),
		"secChUa":         headerOrNil(c, "Sec-CH-UA"),
		"secChUaPlatform": headerOrNil(c, "Sec-CH-UA-Platform"),
		"secChUaMobile":   headerOrNil(c, "Sec-CH-UA-Mobile"),
		"secFetchSite":    headerOrNil(c, "Sec-Fetch-Site"),
		"secFetchMode":    headerOrNil(c, "Sec-Fetch-Mode"),
		"secFetchDest":    headerOrNil(c, "Sec-Fetch-Dest"),
		"query":           Sanitize(query),
		"body":            Sanitize(capturedBody(c)),
		"params":          Sanitize(params),
		"extra":           Sanitize(mapToAny(extra)),
	}

	serialized, err := json.Marshal(context)
	if err != nil {
		return "{}"
	}
	return string(serialized)
}

// sanitizedEndpoint renders the request URI for persistence with
// secret-bearing query parameter values redacted. The document viewer
// authenticates via ?token=, which must never land in the endpoint column
// verbatim.
func sanitizedEndpoint(u *url.URL) string {
	query := u.Query()
	redacted := false
	for key := range query {
		if _, secret := redactedKeys[strings.ToLower(key)]; secret {
			query[key] = []string{redactedMarker}
			redacted = true
		}
	}
	if !redacted {
		return u.RequestURI()
	}

	clean := *u
	clean.RawQuery = query.Encode()
	return clean.RequestURI()
}

func headerOrNil(c *gin.Context, name string) interface{} {
	if name == "Host" {
		if c.Request.Host != "" {
			return c.Request.Host
		}
		return nil
	}
	if value := c.GetHeader(name); value != "" {
		return value
	}
	return nil
}

func mapToAny(m map[string]interface{}) interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
