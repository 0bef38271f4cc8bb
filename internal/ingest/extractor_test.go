package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"
)

func TestExtractText_ThresholdAndOrder(t *testing.T) {
	record := gjson.Parse(`{
		"demoPointId": "1234",
		"title": "<b>Apply for leave</b>",
		"flag": "Y",
		"count": 17,
		"description": "<p>Open the Leave tab and click Apply.</p>",
		"exactlyTen": "0123456789",
		"elevenChars": "01234567890",
		"nested": {"text": "this nested value is not a direct field"},
		"list": ["a list value is not a string field either"]
	}`)

	got := ExtractText(record, NoiseMaxLen)

	assert.Equal(t, "Apply for leave\nOpen the Leave tab and click Apply.\n01234567890", got)
}

func TestExtractText_LengthIsMeasuredAfterCleaning(t *testing.T) {
	// 14 bytes raw, 5 characters once tags are gone
	record := gjson.Parse(`{"label": "<i>Short</i>"}`)

	assert.Empty(t, ExtractText(record, NoiseMaxLen))
}

func TestExtractText_UnknownFieldsArePickedUp(t *testing.T) {
	record := gjson.Parse(`{"someFieldAddedNextYear": "A brand new explanation field"}`)

	assert.Equal(t, "A brand new explanation field", ExtractText(record, NoiseMaxLen))
}

func TestExtractText_NonObject(t *testing.T) {
	assert.Empty(t, ExtractText(gjson.Parse(`"just a string value here"`), NoiseMaxLen))
	assert.Empty(t, ExtractText(gjson.Parse(`null`), NoiseMaxLen))
}

func TestNeedsOCR(t *testing.T) {
	assert.True(t, NeedsOCR(""))
	assert.True(t, NeedsOCR(strings.Repeat("a", OCRTriggerLen-1)))
	assert.False(t, NeedsOCR(strings.Repeat("a", OCRTriggerLen)))
	// characters, not bytes
	assert.True(t, NeedsOCR(strings.Repeat("é", OCRTriggerLen-1)))
}
