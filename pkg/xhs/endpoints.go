package xhs

import (
	"fmt"
	"math/rand"
	"net/url"
	"strconv"
	"strings"
)

const (
	// BaseURL is the base URL of the web frontend
	BaseURL = "https://www.xiaohongshu.com"

	// APIBaseURL is the base URL of the API host
	APIBaseURL = "https://edith.xiaohongshu.com"

	// SearchNotesEndpoint is the endpoint for keyword search
	SearchNotesEndpoint = "/api/sns/web/v1/search/notes"

	// NoteFeedEndpoint is the endpoint for note details
	NoteFeedEndpoint = "/api/sns/web/v1/feed"

	// UserProfileEndpoint is the endpoint for user profiles
	UserProfileEndpoint = "/api/sns/web/v1/user/otherinfo"

	// UserNotesEndpoint is the endpoint for a user's posted notes
	UserNotesEndpoint = "/api/sns/web/v1/user_posted"

	// CommentsEndpoint is the endpoint for note comments
	CommentsEndpoint = "/api/sns/web/v2/comment/page"

	// SearchPageSize is the number of results per search page
	SearchPageSize = 20

	// UserNotesPageSize is the number of notes per user-notes page
	UserNotesPageSize = 30
)

// Sort orders accepted by the search endpoint
const (
	SortGeneral    = "general"
	SortPopularity = "popularity_descending"
	SortTime       = "time_descending"
)

// Note type filters accepted by the search endpoint
const (
	NoteTypeAll   = 0
	NoteTypeVideo = 1
	NoteTypeImage = 2
)

// NoteURL constructs the canonical explore URL for a note reference
func NoteURL(ref NoteRef) string {
	return fmt.Sprintf("%s/explore/%s?xsec_token=%s", BaseURL, ref.ID, url.QueryEscape(ref.XsecToken))
}

// UserProfileURL constructs the public profile URL for a user
func UserProfileURL(userID string) string {
	if userID == "" {
		return ""
	}
	return fmt.Sprintf("%s/user/profile/%s", BaseURL, userID)
}

// userNotesURL constructs the paginated user-notes API URL
func userNotesURL(base, userID, cursor string, num int) string {
	if num <= 0 || num > UserNotesPageSize {
		num = UserNotesPageSize
	}
	params := url.Values{}
	params.Set("user_id", userID)
	params.Set("cursor", cursor)
	params.Set("num", strconv.Itoa(num))
	params.Set("image_formats", "jpg,webp,avif")
	return fmt.Sprintf("%s%s?%s", base, UserNotesEndpoint, params.Encode())
}

// userProfileURL constructs the user profile API URL
func userProfileURL(base, userID string) string {
	params := url.Values{}
	params.Set("target_user_id", userID)
	return fmt.Sprintf("%s%s?%s", base, UserProfileEndpoint, params.Encode())
}

// commentsURL constructs the paginated comments API URL
func commentsURL(base, noteID, cursor string) string {
	params := url.Values{}
	params.Set("note_id", noteID)
	params.Set("cursor", cursor)
	params.Set("image_formats", "jpg,webp,avif")
	return fmt.Sprintf("%s%s?%s", base, CommentsEndpoint, params.Encode())
}

// ParseUserID extracts the user id from a profile URL. Accepts both the bare
// id and full URLs with query strings.
func ParseUserID(profileURL string) (string, error) {
	s := strings.TrimSpace(profileURL)
	if s == "" {
		return "", fmt.Errorf("empty profile URL")
	}
	if i := strings.IndexByte(s, '?'); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimRight(s, "/")
	if i := strings.LastIndexByte(s, '/'); i >= 0 {
		s = s[i+1:]
	}
	if s == "" {
		return "", fmt.Errorf("no user id in %q", profileURL)
	}
	return s, nil
}

// IsValidNoteID reports whether id looks like a note id (24 hex characters).
func IsValidNoteID(id string) bool {
	if len(id) != 24 {
		return false
	}
	for _, c := range id {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			return false
		}
	}
	return true
}

// ParseCount converts a display count ("328", "1.2万") to an integer.
// Unparseable values collapse to 0.
func ParseCount(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}

	multiplier := 1.0
	if strings.HasSuffix(s, "万") {
		multiplier = 10000
		s = strings.TrimSuffix(s, "万")
	} else if strings.HasSuffix(s, "w") || strings.HasSuffix(s, "W") {
		multiplier = 10000
		s = s[:len(s)-1]
	}

	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return int(v * multiplier)
}

// newSearchID generates the per-search request token the search endpoint
// expects alongside the keyword.
func newSearchID() string {
	const digits = "0123456789abcdefghijklmnopqrstuvwxyz"
	b := make([]byte, 21)
	for i := range b {
		b[i] = digits[rand.Intn(len(digits))]
	}
	return string(b)
}
