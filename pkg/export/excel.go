// Package export persists collected records as xlsx spreadsheets and reads
// them back for offline analysis.
package export

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"xhscollect/pkg/models"
)

// Header is the fixed column order of every exported spreadsheet. Readers
// rely on these positions, so new columns go at the end.
var Header = []string{
	"note_id",
	"title",
	"desc",
	"note_type",
	"url",
	"publish_time",
	"ip_location",
	"user_id",
	"nickname",
	"user_desc",
	"followers",
	"following",
	"like_count",
	"comment_count",
	"collect_count",
	"share_count",
	"comments",
	"search_keyword",
	"category",
	"collect_time",
}

// ExcelWriter writes record batches with one row per note.
type ExcelWriter struct{}

// NewExcelWriter creates a spreadsheet writer.
func NewExcelWriter() *ExcelWriter {
	return &ExcelWriter{}
}

// Write saves records to path as an xlsx workbook with a header row. The
// workbook is staged as a temporary file and renamed into place.
func (w *ExcelWriter) Write(records []models.Record, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)

	header := make([]interface{}, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header row: %w", err)
	}

	for i, rec := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to compute cell name: %w", err)
		}
		row := recordRow(rec)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write record row: %w", err)
		}
	}

	tempPath := path + ".tmp"
	if err := f.SaveAs(tempPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace workbook: %w", err)
	}

	return nil
}

// ReadRecords loads a previously exported workbook back into records. Only
// the columns present in Header survive the round trip; media URLs are not
// part of the spreadsheet contract.
func ReadRecords(path string) ([]models.Record, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("failed to read workbook rows: %w", err)
	}
	if len(rows) <= 1 {
		return nil, nil
	}

	records := make([]models.Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		col := func(i int) string {
			if i < len(row) {
				return strings.TrimSpace(row[i])
			}
			return ""
		}

		rec := models.Record{
			NoteID:      col(0),
			Title:       col(1),
			Desc:        col(2),
			NoteType:    col(3),
			URL:         col(4),
			PublishTime: col(5),
			IPLocation:  col(6),
			Author: models.Author{
				UserID:    col(7),
				Nickname:  col(8),
				Desc:      col(9),
				Followers: atoi(col(10)),
				Following: atoi(col(11)),
			},
			LikeCount:     atoi(col(12)),
			CommentCount:  atoi(col(13)),
			CollectCount:  atoi(col(14)),
			ShareCount:    atoi(col(15)),
			Comments:      parseComments(col(16)),
			SearchKeyword: col(17),
			Category:      col(18),
			CollectTime:   col(19),
		}
		if rec.NoteID == "" {
			continue
		}
		records = append(records, rec)
	}

	return records, nil
}

func recordRow(rec models.Record) []interface{} {
	return []interface{}{
		rec.NoteID,
		rec.Title,
		rec.Desc,
		rec.NoteType,
		rec.URL,
		rec.PublishTime,
		rec.IPLocation,
		rec.Author.UserID,
		rec.Author.Nickname,
		rec.Author.Desc,
		rec.Author.Followers,
		rec.Author.Following,
		rec.LikeCount,
		rec.CommentCount,
		rec.CollectCount,
		rec.ShareCount,
		FlattenComments(rec.Comments),
		rec.SearchKeyword,
		rec.Category,
		rec.CollectTime,
	}
}

// FlattenComments renders comments as one "nickname: text" line each, which
// keeps the spreadsheet to a single comments cell per note.
func FlattenComments(comments []models.Comment) string {
	if len(comments) == 0 {
		return ""
	}
	lines := make([]string, 0, len(comments))
	for _, c := range comments {
		text := strings.ReplaceAll(c.Content, "\n", " ")
		lines = append(lines, fmt.Sprintf("%s: %s", c.Nickname, text))
	}
	return strings.Join(lines, "\n")
}

func parseComments(cell string) []models.Comment {
	if cell == "" {
		return nil
	}
	var comments []models.Comment
	for _, line := range strings.Split(cell, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, ": ", 2)
		if len(parts) == 2 {
			comments = append(comments, models.Comment{Nickname: parts[0], Content: parts[1]})
		} else {
			comments = append(comments, models.Comment{Content: line})
		}
	}
	return comments
}

func atoi(s string) int {
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
