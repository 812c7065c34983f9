package logging

import (
	"log/slog"
	"regexp"
	"strings"
)

const redacted = "[redacted]"

// secretQueryPattern matches the api_key (TMDB) and key (Gemini) query
// parameters as they appear inside URLs embedded in error text.
var secretQueryPattern = regexp.MustCompile(`(?i)\b(api_key|key)=[^&\s"']+`)

// secretAttrKey reports attribute keys whose values are credentials.
func secretAttrKey(key string) bool {
	k := strings.ToLower(key)
	if i := strings.LastIndexByte(k, '.'); i >= 0 {
		k = k[i+1:]
	}
	switch {
	case k == "key", k == "apikey", strings.HasSuffix(k, "api_key"), strings.HasSuffix(k, "apikey"):
		return true
	case strings.Contains(k, "token"), strings.Contains(k, "secret"):
		return true
	}
	return false
}

func scrubSecrets(s string) string {
	if !strings.Contains(strings.ToLower(s), "key=") {
		return s
	}
	return secretQueryPattern.ReplaceAllString(s, "${1}="+redacted)
}

// redactValue masks credential attributes outright and scrubs key query
// parameters out of string and error values.
func redactValue(key string, v slog.Value) slog.Value {
	if secretAttrKey(key) {
		return slog.StringValue(redacted)
	}
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindString:
		if s := v.String(); strings.Contains(strings.ToLower(s), "key=") {
			return slog.StringValue(scrubSecrets(s))
		}
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return slog.StringValue(scrubSecrets(err.Error()))
		}
	}
	return v
}
