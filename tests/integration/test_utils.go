package integration

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"xhscollect/pkg/auth"
	"xhscollect/pkg/config"
	"xhscollect/pkg/logger"
	"xhscollect/pkg/xhs"
)

// testCookies is the session string every integration test authenticates with
const testCookies = "a1=test; web_session=integration"

// TestHelper provides common test utilities
type TestHelper struct {
	t          *testing.T
	mockServer *MockXHSServer
	tempDir    string
}

// NewTestHelper creates a new test helper with a temporary data directory
func NewTestHelper(t *testing.T) *TestHelper {
	return &TestHelper{
		t:       t,
		tempDir: t.TempDir(),
	}
}

// SetupMockServer starts the mock API server and registers its shutdown
func (h *TestHelper) SetupMockServer() *MockXHSServer {
	h.mockServer = NewMockXHSServer()
	h.t.Cleanup(h.mockServer.Close)
	return h.mockServer
}

// CreateTestConfig returns a configuration pointed at the mock server, with
// pacing disabled so runs finish quickly
func (h *TestHelper) CreateTestConfig() *config.Config {
	cfg := config.DefaultConfig()

	cfg.XHS.Cookies = testCookies
	if h.mockServer != nil {
		cfg.XHS.APIBase = h.mockServer.URL()
	}

	cfg.Output.DataDirectory = filepath.Join(h.tempDir, "data")
	cfg.Collection.NotesPerKeyword = 5
	cfg.Collection.SaveMode = "all"
	cfg.Pacing = config.PacingConfig{}

	cfg.RateLimit.RequestsPerMinute = 6000
	cfg.Download.ConcurrentDownloads = 2
	cfg.Download.DownloadTimeout = 5 * time.Second
	cfg.Download.RetryAttempts = 1

	return cfg
}

// TestCredentials returns session credentials accepted by the mock server
func (h *TestHelper) TestCredentials() *auth.Credentials {
	return &auth.Credentials{
		Label:     auth.DefaultLabel,
		Cookies:   testCookies,
		UserAgent: "TestAgent/1.0",
	}
}

// CreateTestLogger creates a test logger
func (h *TestHelper) CreateTestLogger() logger.Logger {
	return logger.NewTestLogger()
}

// NewMockClient returns an API client wired to the mock server
func (h *TestHelper) NewMockClient() *xhs.Client {
	client := xhs.NewClient(testCookies, "TestAgent/1.0", 5*time.Second, h.CreateTestLogger())
	client.SetAPIBaseURL(h.mockServer.URL())
	return client
}

// SeedImageNote registers an image note with one downloadable image and a
// couple of engagement counters
func (h *TestHelper) SeedImageNote(keyword, noteID, title, desc string) {
	h.mockServer.AddNote(keyword, xhs.NoteCard{
		NoteID: noteID,
		Type:   "normal",
		Title:  title,
		Desc:   desc,
		User:   xhs.NoteUser{UserID: "author-" + noteID, Nickname: "作者" + noteID},
		InteractInfo: xhs.InteractInfo{
			LikedCount:     "120",
			CommentCount:   "8",
			CollectedCount: "30",
			ShareCount:     "2",
		},
		ImageList:  []xhs.NoteImage{{URLDefault: h.mockServer.MediaURL(noteID + "_a.jpg")}},
		Time:       time.Now().Add(-24 * time.Hour).UnixMilli(),
		IPLocation: "上海",
	})
}

// SeedVideoNote registers a video note with a cover image and a playable
// stream variant
func (h *TestHelper) SeedVideoNote(keyword, noteID, title string) {
	h.mockServer.AddNote(keyword, xhs.NoteCard{
		NoteID: noteID,
		Type:   "video",
		Title:  title,
		User:   xhs.NoteUser{UserID: "author-" + noteID, Nickname: "作者" + noteID},
		InteractInfo: xhs.InteractInfo{
			LikedCount:   "1.1万",
			CommentCount: "342",
		},
		ImageList: []xhs.NoteImage{{URLDefault: h.mockServer.MediaURL(noteID + "_cover.jpg")}},
		Video: &xhs.NoteVideo{Media: xhs.VideoMedia{Stream: xhs.VideoStream{
			H264: []xhs.VideoVariant{{MasterURL: h.mockServer.MediaURL(noteID + ".mp4")}},
		}}},
		Time:       time.Now().Add(-48 * time.Hour).UnixMilli(),
		IPLocation: "广东",
	})
}

// AssertFileExists checks if a file exists
func (h *TestHelper) AssertFileExists(path string) {
	h.t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		h.t.Errorf("Expected file to exist: %s", path)
	}
}

// AssertFileSize checks that a file exists with the expected byte size
func (h *TestHelper) AssertFileSize(path string, size int64) {
	h.t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		h.t.Errorf("Expected file to exist: %s (%v)", path, err)
		return
	}
	if info.Size() != size {
		h.t.Errorf("File %s is %d bytes, expected %d", path, info.Size(), size)
	}
}

// GlobOne resolves a pattern that must match exactly one file
func (h *TestHelper) GlobOne(pattern string) string {
	h.t.Helper()
	matches, err := filepath.Glob(pattern)
	if err != nil {
		h.t.Fatalf("Bad glob pattern %s: %v", pattern, err)
	}
	if len(matches) != 1 {
		h.t.Fatalf("Expected exactly one match for %s, got %d: %v", pattern, len(matches), matches)
	}
	return matches[0]
}

// WaitForCondition waits for a condition to become true with a timeout
func (h *TestHelper) WaitForCondition(condition func() bool, timeout time.Duration, message string) {
	h.t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	h.t.Errorf("Timeout waiting for condition: %s", message)
}

// noteIDSuffix pads a short marker into a well-formed 24-hex note id
func noteIDSuffix(n int) string {
	return fmt.Sprintf("64f0a1b2c3d4e5f6a7b8%04x", n)
}
