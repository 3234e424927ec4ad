package xhs

import (
	"fmt"
	"net/url"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoteURL(t *testing.T) {
	ref := NoteRef{ID: "64f0a1b2c3d4e5f6a7b8c9d0", XsecToken: "AB0/cd=="}
	result := NoteURL(ref)

	assert.Equal(t, fmt.Sprintf("%s/explore/64f0a1b2c3d4e5f6a7b8c9d0?xsec_token=%s",
		BaseURL, url.QueryEscape("AB0/cd==")), result)

	// The token must survive a URL round trip
	parsed, err := url.Parse(result)
	require.NoError(t, err)
	assert.Equal(t, "AB0/cd==", parsed.Query().Get("xsec_token"))
}

func TestUserProfileURL(t *testing.T) {
	assert.Equal(t, BaseURL+"/user/profile/5ff0e6410000000001008400",
		UserProfileURL("5ff0e6410000000001008400"))
	assert.Equal(t, "", UserProfileURL(""))
}

func TestParseUserID(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		wantErr  bool
	}{
		{
			name:     "full profile URL",
			input:    "https://www.xiaohongshu.com/user/profile/5ff0e6410000000001008400",
			expected: "5ff0e6410000000001008400",
		},
		{
			name:     "URL with query string",
			input:    "https://www.xiaohongshu.com/user/profile/5ff0e641?xsec_token=AB&xsec_source=pc_note",
			expected: "5ff0e641",
		},
		{
			name:     "URL with trailing slash",
			input:    "https://www.xiaohongshu.com/user/profile/5ff0e641/",
			expected: "5ff0e641",
		},
		{
			name:     "bare user id",
			input:    "5ff0e6410000000001008400",
			expected: "5ff0e6410000000001008400",
		},
		{
			name:     "surrounding whitespace",
			input:    "  5ff0e641  ",
			expected: "5ff0e641",
		},
		{
			name:    "empty string",
			input:   "",
			wantErr: true,
		},
		{
			name:    "only slashes",
			input:   "///",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseUserID(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestParseCount(t *testing.T) {
	tests := []struct {
		input    string
		expected int
	}{
		{"328", 328},
		{"4500", 4500},
		{"1.2万", 12000},
		{"3万", 30000},
		{"1.5w", 15000},
		{"2W", 20000},
		{" 66 ", 66},
		{"", 0},
		{"赞", 0},
		{"10+", 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseCount(tt.input))
		})
	}
}

func TestIsValidNoteID(t *testing.T) {
	tests := []struct {
		name     string
		id       string
		expected bool
	}{
		{"valid lowercase hex", "64f0a1b2c3d4e5f6a7b8c9d0", true},
		{"too short", "64f0a1b2", false},
		{"too long", "64f0a1b2c3d4e5f6a7b8c9d0aa", false},
		{"uppercase hex rejected", "64F0A1B2C3D4E5F6A7B8C9D0", false},
		{"non hex character", "64f0a1b2c3d4e5f6a7b8c9dg", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsValidNoteID(tt.id))
		})
	}
}

func TestUserNotesURL(t *testing.T) {
	base := "https://example.test"

	t.Run("includes pagination params", func(t *testing.T) {
		parsed, err := url.Parse(userNotesURL(base, "5ff0e641", "cursor123", 10))
		require.NoError(t, err)

		assert.Equal(t, UserNotesEndpoint, parsed.Path)
		assert.Equal(t, "5ff0e641", parsed.Query().Get("user_id"))
		assert.Equal(t, "cursor123", parsed.Query().Get("cursor"))
		assert.Equal(t, "10", parsed.Query().Get("num"))
	})

	t.Run("clamps page size", func(t *testing.T) {
		for _, num := range []int{0, -5, UserNotesPageSize + 1} {
			parsed, err := url.Parse(userNotesURL(base, "5ff0e641", "", num))
			require.NoError(t, err)
			assert.Equal(t, strconv.Itoa(UserNotesPageSize), parsed.Query().Get("num"))
		}
	})
}

func TestUserProfileAPIURL(t *testing.T) {
	parsed, err := url.Parse(userProfileURL("https://example.test", "5ff0e641"))
	require.NoError(t, err)

	assert.Equal(t, UserProfileEndpoint, parsed.Path)
	assert.Equal(t, "5ff0e641", parsed.Query().Get("target_user_id"))
}

func TestCommentsURL(t *testing.T) {
	parsed, err := url.Parse(commentsURL("https://example.test", "64f0a1b2c3d4e5f6a7b8c9d0", "c1"))
	require.NoError(t, err)

	assert.Equal(t, CommentsEndpoint, parsed.Path)
	assert.Equal(t, "64f0a1b2c3d4e5f6a7b8c9d0", parsed.Query().Get("note_id"))
	assert.Equal(t, "c1", parsed.Query().Get("cursor"))
}

func TestNewSearchID(t *testing.T) {
	id := newSearchID()
	assert.Len(t, id, 21)
	assert.NotEqual(t, id, newSearchID())
}
