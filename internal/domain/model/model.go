// Package model contains domain models passed between layers.
package model

import "time"

// Action identifies a reward-earning action kind.
type Action string

// Action kinds recognized by the rewards system.
const (
	ActionCreateProfile     Action = "CREATE_PROFILE"
	ActionFollowArtist      Action = "FOLLOW_ARTIST"
	ActionLikeTrack         Action = "LIKE_TRACK"
	ActionComment           Action = "COMMENT"
	ActionBackArtist        Action = "BACK_ARTIST"
	ActionStreamTrack       Action = "STREAM_TRACK"
	ActionDailyLogin        Action = "DAILY_LOGIN"
	ActionReferFriend       Action = "REFER_FRIEND"
	ActionWeeklyTopListener Action = "WEEKLY_TOP_LISTENER"
)

// Artist is an immutable snapshot of a catalog artist/user record.
type Artist struct {
	ID             string            `json:"id"`
	Handle         string            `json:"handle"`
	Name           string            `json:"name"`
	Verified       bool              `json:"verified"`
	FollowerCount  int               `json:"follower_count"`
	FolloweeCount  int               `json:"followee_count"`
	TrackCount     int               `json:"track_count"`
	ProfilePicture map[string]string `json:"profile_picture,omitempty"` // size label -> URL
}

// Track is an immutable snapshot of a catalog track record.
type Track struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Duration      int       `json:"duration"` // seconds
	Genre         string    `json:"genre,omitempty"`
	Mood          string    `json:"mood,omitempty"`
	PlayCount     int       `json:"play_count"`
	FavoriteCount int       `json:"favorite_count"`
	RepostCount   int       `json:"repost_count"`
	Artist        Artist    `json:"artist"`
	CreatedAt     time.Time `json:"created_at"`
}

// Activity is one immutable entry in a wallet's interaction ledger.
// Each action kind uses a different subset of the optional fields; pointer
// fields keep "absent" distinct from zero.
type Activity struct {
	ID        string    `json:"id"`
	Action    Action    `json:"action"`
	Points    int       `json:"points"`
	Timestamp time.Time `json:"timestamp"`

	TrackID             string `json:"track_id,omitempty"`
	ArtistID            string `json:"artist_id,omitempty"`
	ArtistFollowerCount *int   `json:"artist_follower_count,omitempty"`
	NoteLength          *int   `json:"note_length,omitempty"`
}

// DayKey returns the calendar-day bucket of the activity timestamp,
// matching the date prefix of its RFC 3339 representation.
func (a Activity) DayKey() string {
	return a.Timestamp.Format("2006-01-02")
}

// LedgerRecord holds one wallet's full interaction history.
// Activities are ordered newest first.
type LedgerRecord struct {
	Wallet     string     `json:"wallet"`
	Points     int        `json:"points"`
	Activities []Activity `json:"activities"`
}

// SignalNote is a backing note attached to an artist in the social graph.
type SignalNote struct {
	ID        string     `json:"id"`
	ProfileID string     `json:"profile_id"`
	Text      string     `json:"text"`
	CreatedAt time.Time  `json:"created_at"`
	Author    NoteAuthor `json:"author"`
}

// Comment is a social-graph comment on a track's content node.
type Comment struct {
	ID        string     `json:"id"`
	ProfileID string     `json:"profile_id"`
	ContentID string     `json:"content_id"`
	Text      string     `json:"text"`
	CreatedAt time.Time  `json:"created_at"`
	Author    NoteAuthor `json:"author"`
}

// NoteAuthor identifies the social-graph profile that wrote a note or comment.
type NoteAuthor struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Image    string `json:"image,omitempty"`
}

// Profile is a social-graph profile record.
type Profile struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	Bio           string `json:"bio,omitempty"`
	Image         string `json:"image,omitempty"`
	WalletAddress string `json:"wallet_address,omitempty"`
}
