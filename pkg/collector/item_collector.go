package collector

import (
	"context"
	"time"

	"xhscollect/pkg/logger"
	"xhscollect/pkg/models"
	"xhscollect/pkg/ratelimit"
	"xhscollect/pkg/xhs"
)

// ItemCollector turns note references into fully populated records. Each
// reference gets one detail fetch; failures are logged and skipped so a
// single bad note never sinks the batch.
type ItemCollector struct {
	source   NoteSource
	gate     *ratelimit.Gate
	pacing   Pacing
	category string
	logger   logger.Logger
}

// NewItemCollector creates an ItemCollector for one campaign category.
func NewItemCollector(source NoteSource, gate *ratelimit.Gate, pacing Pacing, category string, log logger.Logger) *ItemCollector {
	return &ItemCollector{
		source:   source,
		gate:     gate,
		pacing:   pacing,
		category: category,
		logger:   log,
	}
}

// Collect fetches the detail of every referenced note and returns the
// surviving records stamped with the keyword, category and collection time.
// It stops early when the context is cancelled.
func (ic *ItemCollector) Collect(ctx context.Context, refs []xhs.NoteRef, keyword string) []models.Record {
	records := make([]models.Record, 0, len(refs))

	for _, ref := range refs {
		if ctx.Err() != nil {
			break
		}

		card, err := ic.source.GetNoteDetail(ctx, ref)
		if err != nil {
			ic.logger.WarnWithFields("Skipping note, detail fetch failed", map[string]interface{}{
				"note_id": ref.ID,
				"keyword": keyword,
				"error":   err.Error(),
			})
			continue
		}

		rec := ic.normalize(card, ref)
		rec.SearchKeyword = keyword
		rec.Category = ic.category
		rec.CollectTime = time.Now().Format(models.TimeLayout)
		rec.Comments = ic.fetchComments(ctx, rec.NoteID)

		records = append(records, rec)

		ic.logger.DebugWithFields("Collected note", map[string]interface{}{
			"note_id": rec.NoteID,
			"type":    rec.NoteType,
			"title":   rec.Title,
		})

		if err := ic.gate.Wait(ctx, ic.pacing.Item); err != nil {
			break
		}
	}

	return records
}

// normalize maps a note card onto the flat record shape used for export.
func (ic *ItemCollector) normalize(card *xhs.NoteCard, ref xhs.NoteRef) models.Record {
	rec := models.Record{
		NoteID:       card.NoteID,
		Title:        card.Title,
		Desc:         card.Desc,
		NoteType:     card.Type,
		URL:          xhs.NoteURL(ref),
		PublishTime:  models.FormatTimestamp(card.Time),
		IPLocation:   card.IPLocation,
		LikeCount:    xhs.ParseCount(card.InteractInfo.LikedCount),
		CommentCount: xhs.ParseCount(card.InteractInfo.CommentCount),
		CollectCount: xhs.ParseCount(card.InteractInfo.CollectedCount),
		ShareCount:   xhs.ParseCount(card.InteractInfo.ShareCount),
		Author: models.Author{
			UserID:   card.User.UserID,
			Nickname: card.User.Nickname,
		},
	}
	if rec.NoteID == "" {
		rec.NoteID = ref.ID
	}

	for _, img := range card.ImageList {
		if img.URLDefault != "" {
			rec.ImageURLs = append(rec.ImageURLs, img.URLDefault)
		}
	}
	if rec.IsVideo() {
		rec.VideoURL = card.Video.MasterURL()
	}

	return rec
}

// fetchComments grabs the first comment page. Comments are best effort:
// a failed fetch only costs the comment column, never the note.
func (ic *ItemCollector) fetchComments(ctx context.Context, noteID string) []models.Comment {
	page, err := ic.source.GetNoteComments(ctx, noteID, "")
	if err != nil {
		ic.logger.DebugWithFields("Comments unavailable", map[string]interface{}{
			"note_id": noteID,
			"error":   err.Error(),
		})
		return nil
	}

	comments := make([]models.Comment, 0, len(page.Comments))
	for _, c := range page.Comments {
		comments = append(comments, models.Comment{
			UserID:   c.UserInfo.UserID,
			Nickname: c.UserInfo.Nickname,
			Content:  c.Content,
			Time:     models.FormatTimestamp(c.CreateTime),
		})
	}
	return comments
}
