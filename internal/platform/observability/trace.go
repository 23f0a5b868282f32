package observability

import (
	"net/http"
	"strings"

	"github.com/HarshalRajendraPatil/W-commerce-sub000/internal/platform/requestctx"
)

const cloudTraceHeader = "X-Cloud-Trace-Context"

// TraceMiddleware parses the Cloud Trace header when present and stores the
// trace metadata on the request context so log lines can be correlated.
func TraceMiddleware(projectID string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if next == nil {
			next = http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			info, ok := parseCloudTraceContext(r.Header.Get(cloudTraceHeader))
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			info.ProjectID = strings.TrimSpace(projectID)
			ctx := requestctx.WithTrace(r.Context(), info)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// parseCloudTraceContext decodes "TRACE_ID/SPAN_ID;o=OPTIONS".
func parseCloudTraceContext(header string) (requestctx.TraceInfo, bool) {
	header = strings.TrimSpace(header)
	if header == "" {
		return requestctx.TraceInfo{}, false
	}

	tracePart := header
	rest := ""
	if idx := strings.IndexByte(header, '/'); idx >= 0 {
		tracePart = header[:idx]
		rest = header[idx+1:]
	}
	if len(tracePart) != 32 || !isHex(tracePart) {
		return requestctx.TraceInfo{}, false
	}

	info := requestctx.TraceInfo{TraceID: strings.ToLower(tracePart)}
	if rest != "" {
		spanPart := rest
		if idx := strings.IndexByte(rest, ';'); idx >= 0 {
			spanPart = rest[:idx]
			info.Sampled = strings.Contains(rest[idx+1:], "o=1")
		}
		info.SpanID = strings.TrimSpace(spanPart)
	}
	return info, true
}

func isHex(value string) bool {
	for _, r := range value {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		case r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}
