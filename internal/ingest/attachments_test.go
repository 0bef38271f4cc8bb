package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"
)

func TestImageRefs_PathJoinForm(t *testing.T) {
	record := gjson.Parse(`{
		"attachmentPath": "https://cdn.example.com/help/",
		"AttachmentArray": ["one.png", "/two.png", "three.png"]
	}`)

	assert.Equal(t, []string{
		"https://cdn.example.com/help/one.png",
		"https://cdn.example.com/help/two.png",
	}, ImageRefs(record, MaxImagesPerRecord))
}

func TestImageRefs_InlineListForm(t *testing.T) {
	record := gjson.Parse(`{
		"image": [
			{"imagePath": "https://cdn.example.com/a.png"},
			"skip me",
			{"imagePath": ""},
			{"caption": "no path"},
			{"imagePath": "https://cdn.example.com/b.png"}
		]
	}`)

	assert.Equal(t, []string{
		"https://cdn.example.com/a.png",
		"https://cdn.example.com/b.png",
	}, ImageRefs(record, MaxImagesPerRecord))
}

func TestImageRefs_BothFormsCappedTogether(t *testing.T) {
	record := gjson.Parse(`{
		"attachmentPath": "https://cdn.example.com/x",
		"AttachmentArray": ["1.png"],
		"image": [{"imagePath": "https://cdn.example.com/2.png"}, {"imagePath": "https://cdn.example.com/3.png"}]
	}`)

	assert.Equal(t, []string{
		"https://cdn.example.com/x/1.png",
		"https://cdn.example.com/2.png",
	}, ImageRefs(record, MaxImagesPerRecord))
}

func TestDetectAttachmentShapes_RequiresBasePath(t *testing.T) {
	record := gjson.Parse(`{"attachmentPath": "", "AttachmentArray": ["1.png"]}`)

	assert.Empty(t, DetectAttachmentShapes(record))
	assert.Empty(t, ImageRefs(record, MaxImagesPerRecord))
}
