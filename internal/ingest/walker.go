package ingest

import (
	"context"
	"strings"

	"erp-helpdesk-assistant/internal/logger"

	"github.com/tidwall/gjson"
)

// ImageTextRecoverer turns an image URL into text. Implementations absorb
// their own failures and return "" instead.
type ImageTextRecoverer interface {
	RecoverText(ctx context.Context, imageURL string) string
}

// Walker traverses data -> module -> subModuleData -> demoPointData and
// turns each demo point into at most one chunk body.
type Walker struct {
	// OCR is nil when image text recovery is switched off.
	OCR       ImageTextRecoverer
	MaxImages int
}

// Walk returns chunk bodies in traversal order. Any level whose value is not
// an object is skipped and its siblings are still visited.
func (w *Walker) Walk(ctx context.Context, payload gjson.Result) []string {
	var bodies []string

	data := payload.Get("data")
	if !data.IsObject() {
		return nil
	}

	processed := 0
	data.ForEach(func(_, module gjson.Result) bool {
		if !module.IsObject() {
			return true
		}
		subModules := module.Get("subModuleData")
		if !subModules.IsObject() {
			return true
		}

		subModules.ForEach(func(_, sub gjson.Result) bool {
			if !sub.IsObject() {
				return true
			}
			demos := sub.Get("demoPointData")
			if !demos.IsObject() {
				return true
			}

			demos.ForEach(func(_, demo gjson.Result) bool {
				if ctx.Err() != nil {
					return false
				}
				if !demo.IsObject() {
					return true
				}
				processed++
				if processed%50 == 0 {
					logger.Debug("Demo points processed", "count", processed)
				}
				if body, ok := w.buildChunk(ctx, demo); ok {
					bodies = append(bodies, body)
				}
				return true
			})
			return ctx.Err() == nil
		})
		return ctx.Err() == nil
	})

	return bodies
}

// buildChunk merges API text with any recovered image text (API text first)
// and rejects bodies too short to be useful.
func (w *Walker) buildChunk(ctx context.Context, demo gjson.Result) (string, bool) {
	apiText := ExtractText(demo, NoiseMaxLen)

	parts := []string{apiText}
	if w.OCR != nil && NeedsOCR(apiText) {
		limit := w.MaxImages
		if limit <= 0 || limit > MaxImagesPerRecord {
			limit = MaxImagesPerRecord
		}
		for _, ref := range ImageRefs(demo, limit) {
			text := Clean(w.OCR.RecoverText(ctx, ref))
			if textLen(text) > MinOCRTextLen {
				parts = append(parts, text)
			}
		}
	}

	body := strings.TrimSpace(strings.Join(parts, "\n"))
	if textLen(body) <= MinChunkLen {
		return "", false
	}
	return body, true
}
