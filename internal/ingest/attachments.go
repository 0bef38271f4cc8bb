package ingest

import (
	"strings"

	"github.com/tidwall/gjson"
)

// MaxImagesPerRecord bounds recognition latency per demo point.
const MaxImagesPerRecord = 2

// AttachmentShape is one of the two ways a demo point references images.
type AttachmentShape interface {
	imageRefs() []string
}

// PathJoinForm is a base directory plus a list of file names
// (attachmentPath + AttachmentArray).
type PathJoinForm struct {
	BasePath string
	Files    []string
}

// InlineListForm is a list of objects that each carry a full imagePath.
type InlineListForm struct {
	Paths []string
}

func (f PathJoinForm) imageRefs() []string {
	refs := make([]string, 0, len(f.Files))
	base := strings.TrimSuffix(f.BasePath, "/")
	for _, name := range f.Files {
		refs = append(refs, base+"/"+strings.TrimPrefix(name, "/"))
	}
	return refs
}

func (f InlineListForm) imageRefs() []string {
	return f.Paths
}

// DetectAttachmentShapes returns every attachment layout present on the
// record, path-join form first.
func DetectAttachmentShapes(record gjson.Result) []AttachmentShape {
	var shapes []AttachmentShape

	base := record.Get("attachmentPath")
	files := record.Get("AttachmentArray")
	if base.Type == gjson.String && base.Str != "" && files.IsArray() {
		form := PathJoinForm{BasePath: base.Str}
		files.ForEach(func(_, v gjson.Result) bool {
			if name := scalarText(v); name != "" {
				form.Files = append(form.Files, name)
			}
			return true
		})
		if len(form.Files) > 0 {
			shapes = append(shapes, form)
		}
	}

	if images := record.Get("image"); images.IsArray() {
		var form InlineListForm
		images.ForEach(func(_, v gjson.Result) bool {
			if !v.IsObject() {
				return true
			}
			if p := v.Get("imagePath"); p.Type == gjson.String && p.Str != "" {
				form.Paths = append(form.Paths, p.Str)
			}
			return true
		})
		if len(form.Paths) > 0 {
			shapes = append(shapes, form)
		}
	}

	return shapes
}

// ImageRefs flattens all attachment shapes into at most limit image URLs.
func ImageRefs(record gjson.Result, limit int) []string {
	var refs []string
	for _, shape := range DetectAttachmentShapes(record) {
		for _, ref := range shape.imageRefs() {
			if len(refs) == limit {
				return refs
			}
			refs = append(refs, ref)
		}
	}
	return refs
}

func scalarText(v gjson.Result) string {
	switch v.Type {
	case gjson.String:
		return v.Str
	case gjson.Number:
		return v.Raw
	default:
		return ""
	}
}
