package audiocache

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint derives the content-addressed cache key for one synthesis
// request. Identical text and voice parameters always map to the same key, so
// concurrent writes for the same key are idempotent.
func Fingerprint(text, voice string, speed float64, locale string) string {
	h := xxhash.New()
	h.WriteString(text)
	h.Write([]byte{0})
	h.WriteString(voice)
	h.Write([]byte{0})
	h.WriteString(strconv.FormatFloat(speed, 'f', -1, 64))
	h.Write([]byte{0})
	h.WriteString(locale)
	return strconv.FormatUint(h.Sum64(), 16)
}
