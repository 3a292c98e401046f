// Package reputation derives supporter scores, tiers, and badges from a
// wallet's interaction ledger, and per-artist community snapshots across all
// known ledgers. Every function here is pure; callers supply already-fetched
// ledger data.
package reputation

import (
	"math"

	"github.com/lumina-social/lumina/internal/domain/model"
)

// Tier labels supporter score bands.
type Tier string

// Ordered tiers. Boundaries: >=80 Legend, >=60 Scout, >=40 Rising.
const (
	TierNewcomer Tier = "Newcomer"
	TierRising   Tier = "Rising"
	TierScout    Tier = "Scout"
	TierLegend   Tier = "Legend"
)

const (
	tierRisingMin = 40
	tierScoutMin  = 60
	tierLegendMin = 80

	// A follow counts as "early" when the artist had at most this many
	// followers at the time it was recorded.
	earlyFollowThreshold = 5000

	maxBadges = 3
)

// Sub-score caps and weights.
const (
	earlyCap       = 25
	convictionCap  = 24
	consistencyCap = 18
	socialCap      = 16
	loyaltyCap     = 17

	earlyFollowWeight  = 8
	lateFollowWeight   = 2
	backWeight         = 6
	thesisLengthDiv    = 30
	activeDayWeight    = 2
	commentWeight      = 3
	uniqueArtistWeight = 2
	loyaltyPointsDiv   = 70
)

// Badge is one entry of the fixed badge catalog.
type Badge struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Icon  string `json:"icon"`
}

// Badge catalog in award-priority order.
var badgeCatalog = []Badge{
	{ID: "early_backer", Label: "Early Backer", Icon: "solar:rocket-bold-duotone"},
	{ID: "conviction_writer", Label: "Conviction Writer", Icon: "solar:pen-new-square-bold-duotone"},
	{ID: "social_catalyst", Label: "Social Catalyst", Icon: "solar:chat-round-dots-bold-duotone"},
	{ID: "taste_curator", Label: "Taste Curator", Icon: "solar:heart-bold-duotone"},
	{ID: "loyal_listener", Label: "Loyal Listener", Icon: "solar:music-note-bold-duotone"},
	{ID: "scene_scout", Label: "Scene Scout", Icon: "solar:star-bold-duotone"},
}

// Metrics is the aggregate bundle backing a supporter profile.
type Metrics struct {
	FollowCount         int `json:"follow_count"`
	EarlyFollowCount    int `json:"early_follow_count"`
	BackCount           int `json:"back_count"`
	AverageThesisLength int `json:"average_thesis_length"`
	CommentCount        int `json:"comment_count"`
	LikeCount           int `json:"like_count"`
	ActiveDays          int `json:"active_days"`
	UniqueArtists       int `json:"unique_artists"`
}

// SupporterProfile is the derived, per-wallet gamification summary.
type SupporterProfile struct {
	Score   int     `json:"score"` // clamped to [0,100]
	Tier    Tier    `json:"tier"`
	Metrics Metrics `json:"metrics"`
	Badges  []Badge `json:"badges"` // at most 3, catalog order
}

// ComputeSupporterProfile derives a supporter profile from a wallet's total
// points and full activity history.
func ComputeSupporterProfile(totalPoints int, activities []model.Activity) SupporterProfile {
	var follows, backs, comments, likes []model.Activity
	for _, a := range activities {
		switch a.Action {
		case model.ActionFollowArtist:
			follows = append(follows, a)
		case model.ActionBackArtist:
			backs = append(backs, a)
		case model.ActionComment:
			comments = append(comments, a)
		case model.ActionLikeTrack:
			likes = append(likes, a)
		}
	}

	earlyFollowCount := 0
	for _, a := range follows {
		if a.ArtistFollowerCount != nil && *a.ArtistFollowerCount <= earlyFollowThreshold {
			earlyFollowCount++
		}
	}

	thesisTotal, thesisCount := 0, 0
	for _, a := range backs {
		if a.NoteLength != nil {
			thesisTotal += *a.NoteLength
			thesisCount++
		}
	}
	averageThesisLength := 0
	if thesisCount > 0 {
		averageThesisLength = int(math.Round(float64(thesisTotal) / float64(thesisCount)))
	}

	days := make(map[string]struct{}, len(activities))
	artists := make(map[string]struct{})
	for _, a := range activities {
		days[a.DayKey()] = struct{}{}
		if a.ArtistID != "" {
			artists[a.ArtistID] = struct{}{}
		}
	}
	activeDays := len(days)
	uniqueArtists := len(artists)

	earlyScore := min(earlyCap, earlyFollowCount*earlyFollowWeight+(len(follows)-earlyFollowCount)*lateFollowWeight)
	convictionScore := min(convictionCap, len(backs)*backWeight+averageThesisLength/thesisLengthDiv)
	consistencyScore := min(consistencyCap, activeDays*activeDayWeight)
	socialScore := min(socialCap, len(comments)*commentWeight+uniqueArtists*uniqueArtistWeight)
	loyaltyScore := min(loyaltyCap, totalPoints/loyaltyPointsDiv)

	score := earlyScore + convictionScore + consistencyScore + socialScore + loyaltyScore
	score = max(0, min(100, score))

	metrics := Metrics{
		FollowCount:         len(follows),
		EarlyFollowCount:    earlyFollowCount,
		BackCount:           len(backs),
		AverageThesisLength: averageThesisLength,
		CommentCount:        len(comments),
		LikeCount:           len(likes),
		ActiveDays:          activeDays,
		UniqueArtists:       uniqueArtists,
	}

	var badges []Badge
	for _, badge := range badgeCatalog {
		if badgeEarned(badge.ID, metrics) {
			badges = append(badges, badge)
		}
		if len(badges) == maxBadges {
			break
		}
	}

	return SupporterProfile{
		Score:   score,
		Tier:    tierFor(score),
		Metrics: metrics,
		Badges:  badges,
	}
}

func badgeEarned(id string, m Metrics) bool {
	switch id {
	case "early_backer":
		return m.EarlyFollowCount >= 2
	case "conviction_writer":
		return m.BackCount >= 2 && m.AverageThesisLength >= 70
	case "social_catalyst":
		return m.CommentCount >= 3
	case "taste_curator":
		return m.LikeCount >= 8
	case "loyal_listener":
		return m.ActiveDays >= 7
	case "scene_scout":
		return m.UniqueArtists >= 5
	default:
		return false
	}
}

func tierFor(score int) Tier {
	switch {
	case score >= tierLegendMin:
		return TierLegend
	case score >= tierScoutMin:
		return TierScout
	case score >= tierRisingMin:
		return TierRising
	default:
		return TierNewcomer
	}
}
