package integration

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"xhscollect/pkg/artifact"
	"xhscollect/pkg/xhs"
)

// TestClientSearchPagination walks a keyword with more notes than one page
func TestClientSearchPagination(t *testing.T) {
	h := NewTestHelper(t)
	h.SetupMockServer()

	keyword := "消费维权"
	for i := 0; i < 23; i++ {
		h.SeedImageNote(keyword, noteIDSuffix(100+i), "维权笔记", "内容")
	}

	client := h.NewMockClient()

	page1, err := client.SearchNotes(context.Background(), keyword, 1, xhs.SortGeneral, xhs.NoteTypeAll)
	if err != nil {
		t.Fatalf("First search page failed: %v", err)
	}
	if !page1.HasMore {
		t.Error("First page should report more results")
	}

	notes := 0
	for _, item := range page1.Items {
		if item.ModelType == "note" {
			notes++
		}
	}
	if notes != xhs.SearchPageSize {
		t.Errorf("First page carries %d notes, expected %d", notes, xhs.SearchPageSize)
	}
	if len(page1.Items) == notes {
		t.Error("First page should mix non-note items into the results")
	}

	page2, err := client.SearchNotes(context.Background(), keyword, 2, xhs.SortGeneral, xhs.NoteTypeAll)
	if err != nil {
		t.Fatalf("Second search page failed: %v", err)
	}
	if page2.HasMore {
		t.Error("Second page should be the last")
	}
	if len(page2.Items) != 3 {
		t.Errorf("Second page carries %d items, expected 3", len(page2.Items))
	}
}

// TestClientNoteDetailFlow follows a search result to its card and comments
func TestClientNoteDetailFlow(t *testing.T) {
	h := NewTestHelper(t)
	mock := h.SetupMockServer()

	keyword := "医美投诉"
	noteID := noteIDSuffix(200)
	h.SeedImageNote(keyword, noteID, "投诉全流程", "先找平台再找监管")
	mock.AddComments(noteID, xhs.Comment{
		ID: "c1", Content: "已收藏", CreateTime: 1700000000000,
		UserInfo: xhs.CommentUser{UserID: "cu1", Nickname: "路人"},
	})

	client := h.NewMockClient()

	page, err := client.SearchNotes(context.Background(), keyword, 1, xhs.SortGeneral, xhs.NoteTypeAll)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	var ref xhs.NoteRef
	for _, item := range page.Items {
		if item.ModelType == "note" {
			ref = xhs.NoteRef{ID: item.ID, XsecToken: item.XsecToken}
			break
		}
	}
	if ref.ID != noteID {
		t.Fatalf("Search returned note %q, expected %q", ref.ID, noteID)
	}
	if ref.XsecToken == "" {
		t.Fatal("Search result carries no access token")
	}

	card, err := client.GetNoteDetail(context.Background(), ref)
	if err != nil {
		t.Fatalf("Detail fetch failed: %v", err)
	}
	if card.Title != "投诉全流程" {
		t.Errorf("Card title is %q", card.Title)
	}

	comments, err := client.GetNoteComments(context.Background(), noteID, "")
	if err != nil {
		t.Fatalf("Comments fetch failed: %v", err)
	}
	if len(comments.Comments) != 1 || comments.Comments[0].Content != "已收藏" {
		t.Errorf("Comments are %+v", comments.Comments)
	}
}

// TestClientUserEndpoints fetches a profile and its posted notes
func TestClientUserEndpoints(t *testing.T) {
	h := NewTestHelper(t)
	mock := h.SetupMockServer()

	userID := "5ff0e6410000000001008402"
	u1 := noteIDSuffix(210)
	h.SeedVideoNote("", u1, "置顶维权视频")
	mock.AddUser(userID, xhs.UserData{
		BasicInfo: xhs.UserBasicInfo{Nickname: "维权互助", Desc: "经验整理"},
		Interactions: []xhs.UserInteract{
			{Type: "fans", Name: "粉丝", Count: "1200"},
			{Type: "follows", Name: "关注", Count: "80"},
		},
	}, u1)

	client := h.NewMockClient()

	profile, err := client.GetUserProfile(context.Background(), userID)
	if err != nil {
		t.Fatalf("Profile fetch failed: %v", err)
	}
	if profile.BasicInfo.Nickname != "维权互助" || profile.Followers() != 1200 {
		t.Errorf("Profile is %+v", profile)
	}

	notes, err := client.GetUserNotes(context.Background(), userID, "")
	if err != nil {
		t.Fatalf("User notes fetch failed: %v", err)
	}
	if len(notes.Notes) != 1 || notes.Notes[0].NoteID != u1 {
		t.Fatalf("User notes are %+v", notes.Notes)
	}
	if notes.Notes[0].Type != "video" {
		t.Errorf("Note type is %q, expected video", notes.Notes[0].Type)
	}
}

// TestMediaDownloadIntoStore downloads from the mock CDN and persists the
// file through the artifact store
func TestMediaDownloadIntoStore(t *testing.T) {
	h := NewTestHelper(t)
	mock := h.SetupMockServer()

	client := h.NewMockClient()
	data, err := client.DownloadMedia(context.Background(), mock.MediaURL("evidence_1.jpg"))
	if err != nil {
		t.Fatalf("Download failed: %v", err)
	}
	if len(data) != mockMediaSize {
		t.Fatalf("Downloaded %d bytes, expected %d", len(data), mockMediaSize)
	}

	store, err := artifact.NewStore(filepath.Join(h.tempDir, "data"), nil)
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	if err := store.SaveMedia(bytes.NewReader(data), "medical_beauty", "医美维权", "evidence_1.jpg"); err != nil {
		t.Fatalf("Failed to save media: %v", err)
	}

	h.AssertFileSize(filepath.Join(store.DataDir(), "media", "medical_beauty", "医美维权", "evidence_1.jpg"), mockMediaSize)
}

// TestClientErrorMapping checks typed errors for HTTP and envelope failures
func TestClientErrorMapping(t *testing.T) {
	h := NewTestHelper(t)
	mock := h.SetupMockServer()
	client := h.NewMockClient()

	mock.SetErrorResponse(xhs.UserProfileEndpoint, 429)
	_, err := client.GetUserProfile(context.Background(), "5ff0e641")
	apiErr, ok := err.(*xhs.Error)
	if !ok {
		t.Fatalf("Expected a typed API error, got %T: %v", err, err)
	}
	if apiErr.Type != xhs.ErrorTypeRateLimit {
		t.Errorf("429 mapped to %q, expected rate limit", apiErr.Type)
	}
	mock.ClearErrorResponse(xhs.UserProfileEndpoint)

	mock.FailKeyword("风控词", -101)
	_, err = client.SearchNotes(context.Background(), "风控词", 1, xhs.SortGeneral, xhs.NoteTypeAll)
	apiErr, ok = err.(*xhs.Error)
	if !ok {
		t.Fatalf("Expected a typed API error, got %T: %v", err, err)
	}
	if apiErr.Type != xhs.ErrorTypeAuth {
		t.Errorf("Envelope code -101 mapped to %q, expected auth", apiErr.Type)
	}
}
