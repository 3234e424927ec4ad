package collector

import (
	"context"

	"xhscollect/pkg/xhs"
)

// NoteSource provides the read side of the Xiaohongshu web API. It is
// satisfied by xhs.Client and mocked in tests.
type NoteSource interface {
	SearchNotes(ctx context.Context, keyword string, page int, sort string, noteType int) (*xhs.SearchData, error)
	GetNoteDetail(ctx context.Context, ref xhs.NoteRef) (*xhs.NoteCard, error)
	GetNoteComments(ctx context.Context, noteID, cursor string) (*xhs.CommentsData, error)
	GetUserProfile(ctx context.Context, userID string) (*xhs.UserData, error)
	GetUserNotes(ctx context.Context, userID, cursor string) (*xhs.UserNotesData, error)
	DownloadMedia(ctx context.Context, mediaURL string) ([]byte, error)
}
