package ingest

import (
	"strings"

	"github.com/tidwall/gjson"
)

const (
	// NoiseMaxLen is the longest cleaned field still treated as an id, flag
	// or short label.
	NoiseMaxLen = 10

	// OCRTriggerLen: records with less API text than this also get their
	// attached screenshots recognized.
	OCRTriggerLen = 120

	// MinOCRTextLen is the shortest recognized image text worth keeping.
	MinOCRTextLen = 20

	// MinChunkLen is the shortest merged chunk body worth indexing.
	MinChunkLen = 30
)

// ExtractText collects every string-valued field of a demo point record
// whose cleaned length exceeds minLen, in the record's own field order.
// No field names are consulted, so fields added upstream are picked up
// without code changes.
func ExtractText(record gjson.Result, minLen int) string {
	if !record.IsObject() {
		return ""
	}

	var texts []string
	record.ForEach(func(_, value gjson.Result) bool {
		if value.Type != gjson.String {
			return true
		}
		if clean := Clean(value.Str); textLen(clean) > minLen {
			texts = append(texts, clean)
		}
		return true
	})

	return strings.Join(texts, "\n")
}

// NeedsOCR reports whether the extracted API text is too thin to stand on
// its own.
func NeedsOCR(apiText string) bool {
	return textLen(apiText) < OCRTriggerLen
}
