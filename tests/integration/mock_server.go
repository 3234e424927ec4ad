package integration

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"

	"xhscollect/pkg/xhs"
)

// MockXHSServer simulates the Xiaohongshu web API with an in-memory note
// catalog. Tests seed notes, users and comments, then point a client or a
// facade at URL().
type MockXHSServer struct {
	server *httptest.Server

	mu             sync.RWMutex
	notes          map[string]xhs.NoteCard  // note id -> full card
	tokens         map[string]string        // note id -> xsec token
	keywordNotes   map[string][]string      // keyword -> note ids, in seed order
	userNotes      map[string][]string      // user id -> note ids
	users          map[string]xhs.UserData  // user id -> profile
	comments       map[string][]xhs.Comment // note id -> comments
	failedKeywords map[string]int           // keyword -> envelope failure code
	errorResponses map[string]int           // URL path -> HTTP status

	requestCount   int32
	mediaDownloads int32
}

// NewMockXHSServer creates and starts a mock API server
func NewMockXHSServer() *MockXHSServer {
	m := &MockXHSServer{
		notes:          make(map[string]xhs.NoteCard),
		tokens:         make(map[string]string),
		keywordNotes:   make(map[string][]string),
		userNotes:      make(map[string][]string),
		users:          make(map[string]xhs.UserData),
		comments:       make(map[string][]xhs.Comment),
		failedKeywords: make(map[string]int),
		errorResponses: make(map[string]int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc(xhs.SearchNotesEndpoint, m.handleSearch)
	mux.HandleFunc(xhs.NoteFeedEndpoint, m.handleFeed)
	mux.HandleFunc(xhs.CommentsEndpoint, m.handleComments)
	mux.HandleFunc(xhs.UserProfileEndpoint, m.handleUserProfile)
	mux.HandleFunc(xhs.UserNotesEndpoint, m.handleUserNotes)
	mux.HandleFunc("/media/", m.handleMedia)

	m.server = httptest.NewServer(mux)
	return m
}

// URL returns the base URL of the mock server
func (m *MockXHSServer) URL() string {
	return m.server.URL
}

// MediaURL returns a downloadable media URL served by the mock CDN path
func (m *MockXHSServer) MediaURL(name string) string {
	return m.server.URL + "/media/" + name
}

// Close shuts down the mock server
func (m *MockXHSServer) Close() {
	m.server.Close()
}

// AddNote registers a note card. When keyword is non-empty the note also
// shows up in search results for that keyword.
func (m *MockXHSServer) AddNote(keyword string, card xhs.NoteCard) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notes[card.NoteID] = card
	m.tokens[card.NoteID] = "tok-" + card.NoteID
	if keyword != "" {
		m.keywordNotes[keyword] = append(m.keywordNotes[keyword], card.NoteID)
	}
}

// AddSearchRef registers a search result without a backing note card, so
// the detail fetch for it fails with a not-found envelope.
func (m *MockXHSServer) AddSearchRef(keyword, noteID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[noteID] = "tok-" + noteID
	m.keywordNotes[keyword] = append(m.keywordNotes[keyword], noteID)
}

// AddUser registers a user profile together with its posted notes. The note
// cards must be registered separately via AddNote.
func (m *MockXHSServer) AddUser(userID string, profile xhs.UserData, noteIDs ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[userID] = profile
	m.userNotes[userID] = append(m.userNotes[userID], noteIDs...)
}

// AddComments attaches comments to a note
func (m *MockXHSServer) AddComments(noteID string, comments ...xhs.Comment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.comments[noteID] = append(m.comments[noteID], comments...)
}

// FailKeyword makes searches for keyword return an unsuccessful envelope
// with the given business code
func (m *MockXHSServer) FailKeyword(keyword string, code int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failedKeywords[keyword] = code
}

// SetErrorResponse configures a URL path to return a specific HTTP status
func (m *MockXHSServer) SetErrorResponse(path string, code int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorResponses[path] = code
}

// ClearErrorResponse removes error configuration for a URL path
func (m *MockXHSServer) ClearErrorResponse(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.errorResponses, path)
}

// RequestCount returns the total number of API requests received
func (m *MockXHSServer) RequestCount() int {
	return int(atomic.LoadInt32(&m.requestCount))
}

// MediaDownloads returns the number of media files served
func (m *MockXHSServer) MediaDownloads() int {
	return int(atomic.LoadInt32(&m.mediaDownloads))
}

// failPath writes a configured HTTP error for the request path, if any
func (m *MockXHSServer) failPath(w http.ResponseWriter, r *http.Request) bool {
	m.mu.RLock()
	code := m.errorResponses[r.URL.Path]
	m.mu.RUnlock()
	if code == 0 {
		return false
	}
	w.WriteHeader(code)
	return true
}

// handleSearch serves paginated keyword search results. Page one carries an
// inline query suggestion the way real searches do, so clients must filter
// on the model type.
func (m *MockXHSServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&m.requestCount, 1)
	if m.failPath(w, r) {
		return
	}

	var body struct {
		Keyword  string `json:"keyword"`
		Page     int    `json:"page"`
		PageSize int    `json:"page_size"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if body.Page < 1 {
		body.Page = 1
	}
	if body.PageSize <= 0 {
		body.PageSize = xhs.SearchPageSize
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if code, ok := m.failedKeywords[body.Keyword]; ok {
		writeJSON(w, xhs.SearchResponse{Success: false, Msg: "风控拦截", Code: code})
		return
	}

	ids := m.keywordNotes[body.Keyword]
	start := (body.Page - 1) * body.PageSize
	end := start + body.PageSize
	if start > len(ids) {
		start = len(ids)
	}
	if end > len(ids) {
		end = len(ids)
	}

	items := make([]xhs.SearchItem, 0, end-start+1)
	if body.Page == 1 {
		items = append(items, xhs.SearchItem{ID: "sug-" + body.Keyword, ModelType: "rec_query"})
	}
	for _, id := range ids[start:end] {
		items = append(items, xhs.SearchItem{ID: id, ModelType: "note", XsecToken: m.tokens[id]})
	}

	writeJSON(w, xhs.SearchResponse{
		Success: true,
		Data:    xhs.SearchData{HasMore: end < len(ids), Items: items},
	})
}

// handleFeed serves full note cards. Unknown notes get the taken-down
// business code instead of an HTTP error, matching the live service.
func (m *MockXHSServer) handleFeed(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&m.requestCount, 1)
	if m.failPath(w, r) {
		return
	}

	var body struct {
		SourceNoteID string `json:"source_note_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	m.mu.RLock()
	card, ok := m.notes[body.SourceNoteID]
	m.mu.RUnlock()

	if !ok {
		writeJSON(w, xhs.FeedResponse{Success: false, Msg: "笔记不存在", Code: 300012})
		return
	}

	writeJSON(w, xhs.FeedResponse{
		Success: true,
		Data: xhs.FeedData{Items: []xhs.FeedItem{
			{ID: card.NoteID, ModelType: "note", NoteCard: card},
		}},
	})
}

// handleComments serves all seeded comments of a note as a single page
func (m *MockXHSServer) handleComments(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&m.requestCount, 1)
	if m.failPath(w, r) {
		return
	}

	noteID := r.URL.Query().Get("note_id")

	m.mu.RLock()
	comments := m.comments[noteID]
	m.mu.RUnlock()

	writeJSON(w, xhs.CommentsResponse{
		Success: true,
		Data:    xhs.CommentsData{Comments: comments, HasMore: false},
	})
}

// handleUserProfile serves seeded user profiles
func (m *MockXHSServer) handleUserProfile(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&m.requestCount, 1)
	if m.failPath(w, r) {
		return
	}

	userID := r.URL.Query().Get("target_user_id")

	m.mu.RLock()
	profile, ok := m.users[userID]
	m.mu.RUnlock()

	if !ok {
		writeJSON(w, xhs.UserResponse{Success: false, Msg: "用户不存在", Code: 300012})
		return
	}

	writeJSON(w, xhs.UserResponse{Success: true, Data: profile})
}

// handleUserNotes serves a user's posted notes as a single page
func (m *MockXHSServer) handleUserNotes(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&m.requestCount, 1)
	if m.failPath(w, r) {
		return
	}

	userID := r.URL.Query().Get("user_id")

	m.mu.RLock()
	defer m.mu.RUnlock()

	notes := make([]xhs.UserNote, 0, len(m.userNotes[userID]))
	for _, id := range m.userNotes[userID] {
		notes = append(notes, xhs.UserNote{
			NoteID:    id,
			XsecToken: m.tokens[id],
			Type:      m.notes[id].Type,
		})
	}

	writeJSON(w, xhs.UserNotesResponse{
		Success: true,
		Data:    xhs.UserNotesData{Notes: notes, HasMore: false},
	})
}

// handleMedia serves a fixed-size fake media file for any /media/ path
func (m *MockXHSServer) handleMedia(w http.ResponseWriter, r *http.Request) {
	if m.failPath(w, r) {
		return
	}

	name := strings.TrimPrefix(r.URL.Path, "/media/")
	if name == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	atomic.AddInt32(&m.mediaDownloads, 1)

	contentType := "image/jpeg"
	if strings.HasSuffix(name, ".mp4") {
		contentType = "video/mp4"
	}
	w.Header().Set("Content-Type", contentType)

	data := make([]byte, mockMediaSize)
	for i := range data {
		data[i] = byte(i % 256)
	}
	w.Write(data)
}

// mockMediaSize is the byte size of every file the mock CDN serves
const mockMediaSize = 1024

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
