package recommend

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"morelikethis/internal/media"
)

const keySeparator = "\x1f"

// fingerprint keeps raw API keys out of the cache map.
func fingerprint(secret string) string {
	if secret == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:12])
}

func titleKey(id string, keys Keys, kind media.Kind, ai AI) string {
	return strings.Join([]string{
		id,
		fingerprint(keys.TMDB),
		fingerprint(keys.Gemini),
		string(kind),
		ai.Model,
		strconv.Itoa(ai.Count),
		string(ai.Filter),
	}, keySeparator)
}

func generalKey(kind media.Kind, ai AI) string {
	return strings.Join([]string{string(kind), ai.Model, strconv.Itoa(ai.Count)}, keySeparator)
}

func similarKey(id, tmdbKey string) string {
	return id + keySeparator + fingerprint(tmdbKey)
}
