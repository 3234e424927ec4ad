package models

import "time"

// TimeLayout is the human readable timestamp format used across exported
// artifacts (xlsx cells, run stats, comment times).
const TimeLayout = "2006-01-02 15:04:05"

// Record is the normalized unit of collected data: one Xiaohongshu note
// together with its author snapshot, engagement counters, comments and the
// collection provenance (which keyword and category produced it).
type Record struct {
	NoteID      string `json:"note_id"`
	Title       string `json:"title"`
	Desc        string `json:"desc"`
	NoteType    string `json:"note_type"` // "normal" or "video"
	URL         string `json:"url"`
	PublishTime string `json:"publish_time,omitempty"`
	IPLocation  string `json:"ip_location,omitempty"`

	Author   Author    `json:"author"`
	Comments []Comment `json:"comments,omitempty"`

	LikeCount    int `json:"like_count"`
	CommentCount int `json:"comment_count"`
	CollectCount int `json:"collect_count"`
	ShareCount   int `json:"share_count"`

	ImageURLs []string `json:"image_urls,omitempty"`
	VideoURL  string   `json:"video_url,omitempty"`

	// Provenance stamped by the collector.
	SearchKeyword string `json:"search_keyword"`
	Category      string `json:"category"`
	CollectTime   string `json:"collect_time"`
}

// Author is the note author snapshot. Follower counts are only populated
// when a profile lookup happened (user collection runs); keyword runs carry
// the identity embedded in the note payload.
type Author struct {
	UserID    string `json:"user_id"`
	Nickname  string `json:"nickname"`
	Desc      string `json:"desc,omitempty"`
	Followers int    `json:"followers,omitempty"`
	Following int    `json:"following,omitempty"`
}

// Comment is a single top-level comment on a note.
type Comment struct {
	UserID   string `json:"user_id"`
	Nickname string `json:"nickname"`
	Content  string `json:"content"`
	Time     string `json:"time"`
}

// IsVideo reports whether the record describes a video note.
func (r *Record) IsVideo() bool {
	return r.NoteType == "video"
}

// FormatTimestamp renders a millisecond epoch timestamp, as used by the
// Xiaohongshu API, in TimeLayout. Zero and negative inputs return "".
func FormatTimestamp(ms int64) string {
	if ms <= 0 {
		return ""
	}
	return time.UnixMilli(ms).Format(TimeLayout)
}
