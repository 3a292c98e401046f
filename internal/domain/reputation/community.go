package reputation

import (
	"sort"
	"time"

	"github.com/lumina-social/lumina/internal/domain/model"
)

// Engagement weights for shared-fan scoring.
const (
	followEngagement  = 3
	backEngagement    = 5
	likeEngagement    = 2
	commentEngagement = 3
	overlapBonus      = 2

	communityListCap = 6
)

// CommunityEntry is one wallet row of a community snapshot list.
type CommunityEntry struct {
	Wallet          string     `json:"wallet"`
	Timestamp       *time.Time `json:"timestamp,omitempty"`
	SupporterScore  int        `json:"supporter_score"`
	TopBadge        *Badge     `json:"top_badge,omitempty"`
	EngagementScore int        `json:"engagement_score,omitempty"`
}

// CommunitySnapshot groups an artist's recent followers, recent backers, and
// the fans whose interactions overlap the viewer's. Each list holds at most
// six entries.
type CommunitySnapshot struct {
	RecentFollowers []CommunityEntry `json:"recent_followers"`
	RecentBackers   []CommunityEntry `json:"recent_backers"`
	SharedFans      []CommunityEntry `json:"shared_fans"`
}

// ComputeArtistCommunitySnapshot scans every wallet's ledger and derives the
// community around artistID. trackIDs names the artist's tracks so that
// likes and comments can be attributed; viewerWallet (optional, "" for none)
// unlocks overlap bonuses and is always excluded from the shared-fans list.
func ComputeArtistCommunitySnapshot(records []model.LedgerRecord, artistID string, trackIDs []string, viewerWallet string) CommunitySnapshot {
	trackSet := make(map[string]struct{}, len(trackIDs))
	for _, id := range trackIDs {
		if id != "" {
			trackSet[id] = struct{}{}
		}
	}

	var viewer *model.LedgerRecord
	if viewerWallet != "" {
		for i := range records {
			if records[i].Wallet == viewerWallet {
				viewer = &records[i]
				break
			}
		}
	}

	viewerTrackInteractions := make(map[string]struct{})
	viewerBackedArtist := false
	if viewer != nil {
		for _, a := range viewer.Activities {
			if a.Action == model.ActionBackArtist && a.ArtistID == artistID {
				viewerBackedArtist = true
			}
			if (a.Action == model.ActionLikeTrack || a.Action == model.ActionComment) && a.TrackID != "" {
				if _, ok := trackSet[a.TrackID]; ok {
					viewerTrackInteractions[a.TrackID] = struct{}{}
				}
			}
		}
	}

	latestFollow := make(map[string]time.Time)
	latestBack := make(map[string]time.Time)
	var sharedFans []CommunityEntry

	for _, record := range records {
		for _, a := range record.Activities {
			if a.ArtistID == artistID {
				switch a.Action {
				case model.ActionFollowArtist:
					if current, ok := latestFollow[record.Wallet]; !ok || current.Before(a.Timestamp) {
						latestFollow[record.Wallet] = a.Timestamp
					}
				case model.ActionBackArtist:
					if current, ok := latestBack[record.Wallet]; !ok || current.Before(a.Timestamp) {
						latestBack[record.Wallet] = a.Timestamp
					}
				}
			}
		}

		if viewerWallet != "" && record.Wallet == viewerWallet {
			continue
		}

		engagement, overlap := 0, 0
		for _, a := range record.Activities {
			switch {
			case a.Action == model.ActionFollowArtist && a.ArtistID == artistID:
				engagement += followEngagement
			case a.Action == model.ActionBackArtist && a.ArtistID == artistID:
				engagement += backEngagement
				if viewerBackedArtist {
					overlap += overlapBonus
				}
			case (a.Action == model.ActionLikeTrack || a.Action == model.ActionComment) && a.TrackID != "":
				if _, ok := trackSet[a.TrackID]; !ok {
					continue
				}
				if a.Action == model.ActionComment {
					engagement += commentEngagement
				} else {
					engagement += likeEngagement
				}
				if _, ok := viewerTrackInteractions[a.TrackID]; ok {
					overlap += overlapBonus
				}
			}
		}

		total := engagement + overlap
		if total <= 0 {
			continue
		}

		score, topBadge := summarizeWallet(record)
		sharedFans = append(sharedFans, CommunityEntry{
			Wallet:          record.Wallet,
			SupporterScore:  score,
			TopBadge:        topBadge,
			EngagementScore: total,
		})
	}

	sort.SliceStable(sharedFans, func(i, j int) bool {
		return sharedFans[i].EngagementScore > sharedFans[j].EngagementScore
	})
	if len(sharedFans) > communityListCap {
		sharedFans = sharedFans[:communityListCap]
	}

	return CommunitySnapshot{
		RecentFollowers: recentEntries(latestFollow, records),
		RecentBackers:   recentEntries(latestBack, records),
		SharedFans:      sharedFans,
	}
}

// recentEntries turns a wallet -> latest-timestamp map into a capped list
// sorted most recent first, enriched with supporter summaries.
func recentEntries(latest map[string]time.Time, records []model.LedgerRecord) []CommunityEntry {
	entries := make([]CommunityEntry, 0, len(latest))
	for wallet, ts := range latest {
		when := ts
		entries = append(entries, CommunityEntry{Wallet: wallet, Timestamp: &when})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Timestamp.Equal(*entries[j].Timestamp) {
			return entries[i].Wallet < entries[j].Wallet
		}
		return entries[i].Timestamp.After(*entries[j].Timestamp)
	})
	if len(entries) > communityListCap {
		entries = entries[:communityListCap]
	}

	for i := range entries {
		for _, record := range records {
			if record.Wallet == entries[i].Wallet {
				entries[i].SupporterScore, entries[i].TopBadge = summarizeWallet(record)
				break
			}
		}
	}
	return entries
}

func summarizeWallet(record model.LedgerRecord) (int, *Badge) {
	profile := ComputeSupporterProfile(record.Points, record.Activities)
	if len(profile.Badges) == 0 {
		return profile.Score, nil
	}
	top := profile.Badges[0]
	return profile.Score, &top
}
