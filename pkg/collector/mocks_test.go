package collector

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"xhscollect/internal/downloader"
	"xhscollect/pkg/artifact"
	"xhscollect/pkg/export"
	"xhscollect/pkg/logger"
	"xhscollect/pkg/ratelimit"
	"xhscollect/pkg/xhs"
)

// mockSource is a scripted NoteSource. Search pages are served per keyword
// in call order; anything not scripted fails with a not_found error.
type mockSource struct {
	mu sync.Mutex

	searchPages map[string][]*xhs.SearchData
	searchErr   map[string]error
	searchCalls map[string]int

	cards   map[string]*xhs.NoteCard
	cardErr map[string]error

	comments map[string]*xhs.CommentsData

	profiles   map[string]*xhs.UserData
	profileErr map[string]error
	userPages  map[string][]*xhs.UserNotesData
	userCalls  map[string]int

	media    map[string][]byte
	mediaErr error

	detailCalls int32
	mediaCalls  int32
}

func newMockSource() *mockSource {
	return &mockSource{
		searchPages: make(map[string][]*xhs.SearchData),
		searchErr:   make(map[string]error),
		searchCalls: make(map[string]int),
		cards:       make(map[string]*xhs.NoteCard),
		cardErr:     make(map[string]error),
		comments:    make(map[string]*xhs.CommentsData),
		profiles:    make(map[string]*xhs.UserData),
		profileErr:  make(map[string]error),
		userPages:   make(map[string][]*xhs.UserNotesData),
		userCalls:   make(map[string]int),
		media:       make(map[string][]byte),
	}
}

// addKeyword scripts a single search page for keyword along with a ready
// note card per id.
func (m *mockSource) addKeyword(keyword string, noteIDs ...string) {
	items := make([]xhs.SearchItem, 0, len(noteIDs))
	for _, id := range noteIDs {
		items = append(items, xhs.SearchItem{ID: id, ModelType: "note", XsecToken: "tok-" + id})
		m.cards[id] = noteCard(id)
	}
	m.searchPages[keyword] = []*xhs.SearchData{{Items: items}}
}

func (m *mockSource) SearchNotes(_ context.Context, keyword string, _ int, _ string, _ int) (*xhs.SearchData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	call := m.searchCalls[keyword]
	m.searchCalls[keyword]++

	if err, ok := m.searchErr[keyword]; ok {
		return nil, err
	}
	pages := m.searchPages[keyword]
	if call < len(pages) {
		return pages[call], nil
	}
	return &xhs.SearchData{}, nil
}

func (m *mockSource) GetNoteDetail(_ context.Context, ref xhs.NoteRef) (*xhs.NoteCard, error) {
	atomic.AddInt32(&m.detailCalls, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.cardErr[ref.ID]; ok {
		return nil, err
	}
	if card, ok := m.cards[ref.ID]; ok {
		return card, nil
	}
	return nil, &xhs.Error{Type: xhs.ErrorTypeNotFound, Message: "note not found", Code: 300012}
}

func (m *mockSource) GetNoteComments(_ context.Context, noteID, _ string) (*xhs.CommentsData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if page, ok := m.comments[noteID]; ok {
		return page, nil
	}
	return &xhs.CommentsData{}, nil
}

func (m *mockSource) GetUserProfile(_ context.Context, userID string) (*xhs.UserData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.profileErr[userID]; ok {
		return nil, err
	}
	if p, ok := m.profiles[userID]; ok {
		return p, nil
	}
	return nil, &xhs.Error{Type: xhs.ErrorTypeNotFound, Message: "user not found"}
}

func (m *mockSource) GetUserNotes(_ context.Context, userID, _ string) (*xhs.UserNotesData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	call := m.userCalls[userID]
	m.userCalls[userID]++
	pages := m.userPages[userID]
	if call < len(pages) {
		return pages[call], nil
	}
	return &xhs.UserNotesData{}, nil
}

func (m *mockSource) DownloadMedia(_ context.Context, mediaURL string) ([]byte, error) {
	atomic.AddInt32(&m.mediaCalls, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.mediaErr != nil {
		return nil, m.mediaErr
	}
	if data, ok := m.media[mediaURL]; ok {
		return data, nil
	}
	return []byte("media-bytes"), nil
}

// noteCard builds a plausible image note card for tests.
func noteCard(id string) *xhs.NoteCard {
	return &xhs.NoteCard{
		NoteID: id,
		Type:   "normal",
		Title:  "标题 " + id,
		Desc:   "内容 " + id,
		User:   xhs.NoteUser{UserID: "u-" + id, Nickname: "小红薯"},
		InteractInfo: xhs.InteractInfo{
			LikedCount:     "12",
			CollectedCount: "3",
			CommentCount:   "2",
			ShareCount:     "1",
		},
		ImageList:  []xhs.NoteImage{{URLDefault: "https://img.example.com/" + id + "/0"}},
		Time:       1716000000000,
		IPLocation: "上海",
	}
}

// newTestRunner builds a campaign runner over a temp data directory with
// zero pacing so tests never sleep.
func newTestRunner(t *testing.T, source NoteSource, category, saveMode string) (*CampaignRunner, *artifact.Store) {
	t.Helper()

	store, err := artifact.NewStore(t.TempDir(), export.NewExcelWriter())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	opts := Options{
		NotesPerKeyword: 10,
		Sort:            xhs.SortGeneral,
		NoteType:        xhs.NoteTypeAll,
		SaveMode:        saveMode,
	}

	var pool *downloader.WorkerPool
	if _, media := saveModes(saveMode); media {
		pool = downloader.NewWorkerPool(2, source, store, ratelimit.NewTokenBucket(100, time.Minute), 1, logger.NewNopLogger())
	}

	runner := NewCampaignRunner(source, store, pool, ratelimit.NewGateWithSeed(1), Pacing{}, category, opts, logger.NewNopLogger())
	return runner, store
}
