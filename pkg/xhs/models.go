package xhs

// NoteRef identifies a note for a detail fetch. Search results carry an
// access token alongside the id; both are required to build the fetch URL.
type NoteRef struct {
	ID        string
	XsecToken string
}

// SearchResponse is the envelope returned by the notes search endpoint
type SearchResponse struct {
	Success bool       `json:"success"`
	Msg     string     `json:"msg"`
	Code    int        `json:"code"`
	Data    SearchData `json:"data"`
}

// SearchData contains one page of search results
type SearchData struct {
	HasMore bool         `json:"has_more"`
	Items   []SearchItem `json:"items"`
}

// SearchItem is a single search result entry. Searches return notes mixed
// with other model types (query suggestions, user cards); callers filter on
// ModelType.
type SearchItem struct {
	ID        string `json:"id"`
	ModelType string `json:"model_type"`
	XsecToken string `json:"xsec_token"`
}

// FeedResponse is the envelope returned by the note detail endpoint
type FeedResponse struct {
	Success bool     `json:"success"`
	Msg     string   `json:"msg"`
	Code    int      `json:"code"`
	Data    FeedData `json:"data"`
}

// FeedData wraps the detail items in a feed response
type FeedData struct {
	Items []FeedItem `json:"items"`
}

// FeedItem is a single note detail entry
type FeedItem struct {
	ID        string   `json:"id"`
	ModelType string   `json:"model_type"`
	NoteCard  NoteCard `json:"note_card"`
}

// NoteCard holds the full note payload
type NoteCard struct {
	NoteID       string       `json:"note_id"`
	Type         string       `json:"type"` // "normal" or "video"
	Title        string       `json:"title"`
	Desc         string       `json:"desc"`
	User         NoteUser     `json:"user"`
	InteractInfo InteractInfo `json:"interact_info"`
	ImageList    []NoteImage  `json:"image_list"`
	Video        *NoteVideo   `json:"video,omitempty"`
	Time         int64        `json:"time"`
	IPLocation   string       `json:"ip_location"`
}

// NoteUser is the author snapshot embedded in a note card
type NoteUser struct {
	UserID   string `json:"user_id"`
	Nickname string `json:"nickname"`
	Avatar   string `json:"avatar"`
}

// InteractInfo holds engagement counters. The service serializes counts as
// display strings ("1.2万"), parsed with ParseCount.
type InteractInfo struct {
	LikedCount     string `json:"liked_count"`
	CollectedCount string `json:"collected_count"`
	CommentCount   string `json:"comment_count"`
	ShareCount     string `json:"share_count"`
}

// NoteImage is one image of a note
type NoteImage struct {
	URLDefault string `json:"url_default"`
}

// NoteVideo wraps the video stream variants of a video note
type NoteVideo struct {
	Media VideoMedia `json:"media"`
}

// VideoMedia contains the stream table
type VideoMedia struct {
	Stream VideoStream `json:"stream"`
}

// VideoStream lists codec variants
type VideoStream struct {
	H264 []VideoVariant `json:"h264"`
}

// VideoVariant is a single downloadable rendition
type VideoVariant struct {
	MasterURL string `json:"master_url"`
}

// MasterURL returns the first h264 rendition URL, or empty when the note has
// no downloadable video.
func (v *NoteVideo) MasterURL() string {
	if v == nil || len(v.Media.Stream.H264) == 0 {
		return ""
	}
	return v.Media.Stream.H264[0].MasterURL
}

// CommentsResponse is the envelope returned by the comment page endpoint
type CommentsResponse struct {
	Success bool         `json:"success"`
	Msg     string       `json:"msg"`
	Code    int          `json:"code"`
	Data    CommentsData `json:"data"`
}

// CommentsData contains one page of comments
type CommentsData struct {
	Comments []Comment `json:"comments"`
	Cursor   string    `json:"cursor"`
	HasMore  bool      `json:"has_more"`
}

// Comment is a single note comment
type Comment struct {
	ID         string      `json:"id"`
	Content    string      `json:"content"`
	CreateTime int64       `json:"create_time"`
	UserInfo   CommentUser `json:"user_info"`
}

// CommentUser is the comment author snapshot
type CommentUser struct {
	UserID   string `json:"user_id"`
	Nickname string `json:"nickname"`
}

// UserResponse is the envelope returned by the user profile endpoint
type UserResponse struct {
	Success bool     `json:"success"`
	Msg     string   `json:"msg"`
	Code    int      `json:"code"`
	Data    UserData `json:"data"`
}

// UserData holds a user profile
type UserData struct {
	BasicInfo    UserBasicInfo  `json:"basic_info"`
	Interactions []UserInteract `json:"interactions"`
}

// UserBasicInfo holds the displayed profile fields
type UserBasicInfo struct {
	Nickname   string `json:"nickname"`
	Desc       string `json:"desc"`
	RedID      string `json:"red_id"`
	IPLocation string `json:"ip_location"`
}

// UserInteract is one entry of the profile counters table
type UserInteract struct {
	Type  string `json:"type"`
	Name  string `json:"name"`
	Count string `json:"count"`
}

// Followers returns the fans counter, 0 when absent.
func (u *UserData) Followers() int {
	return u.interaction("fans")
}

// Following returns the follows counter, 0 when absent.
func (u *UserData) Following() int {
	return u.interaction("follows")
}

func (u *UserData) interaction(typ string) int {
	for _, it := range u.Interactions {
		if it.Type == typ {
			return ParseCount(it.Count)
		}
	}
	return 0
}

// UserNotesResponse is the envelope returned by the user posted-notes endpoint
type UserNotesResponse struct {
	Success bool          `json:"success"`
	Msg     string        `json:"msg"`
	Code    int           `json:"code"`
	Data    UserNotesData `json:"data"`
}

// UserNotesData contains one page of a user's notes
type UserNotesData struct {
	Notes   []UserNote `json:"notes"`
	Cursor  string     `json:"cursor"`
	HasMore bool       `json:"has_more"`
}

// UserNote is a single entry of a user's note list
type UserNote struct {
	NoteID    string `json:"note_id"`
	XsecToken string `json:"xsec_token"`
	Type      string `json:"type"`
}
