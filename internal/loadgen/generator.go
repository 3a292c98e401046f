package loadgen

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/lumina-social/lumina/internal/domain/model"
)

// activityPayload mirrors the POST /activities request body.
type activityPayload struct {
	ActivityID          string `json:"activity_id"`
	Wallet              string `json:"wallet"`
	Action              string `json:"action"`
	TS                  string `json:"ts"`
	TrackID             string `json:"track_id,omitempty"`
	ArtistID            string `json:"artist_id,omitempty"`
	ArtistFollowerCount *int   `json:"artist_follower_count,omitempty"`
	NoteLength          *int   `json:"note_length,omitempty"`
}

// actionMix weights the generated action distribution toward cheap,
// frequent interactions with rare high-value ones, roughly matching how
// a real supporter base behaves.
var actionMix = []struct {
	action model.Action
	weight int
}{
	{model.ActionStreamTrack, 40},
	{model.ActionLikeTrack, 25},
	{model.ActionFollowArtist, 12},
	{model.ActionComment, 10},
	{model.ActionDailyLogin, 6},
	{model.ActionBackArtist, 4},
	{model.ActionCreateProfile, 2},
	{model.ActionReferFriend, 1},
}

var totalWeight = func() int {
	total := 0
	for _, m := range actionMix {
		total += m.weight
	}
	return total
}()

func pickAction() model.Action {
	n := rand.IntN(totalWeight)
	for _, m := range actionMix {
		if n < m.weight {
			return m.action
		}
		n -= m.weight
	}
	return model.ActionStreamTrack
}

// generate builds cfg.Activity payloads spread across cfg.Wallets wallets.
// A DupeRatio fraction of them reuse an earlier activity id to exercise
// the idempotency path.
func generate(cfg *Config) []activityPayload {
	wallets := make([]string, cfg.Wallets)
	for i := range wallets {
		wallets[i] = "0x" + uuid.New().String()
	}

	out := make([]activityPayload, 0, cfg.Activity)
	for i := 0; i < cfg.Activity; i++ {
		action := pickAction()
		p := activityPayload{
			ActivityID: uuid.New().String(),
			Wallet:     wallets[rand.IntN(len(wallets))],
			Action:     string(action),
			TS:         time.Now().UTC().Format(time.RFC3339),
		}

		switch action {
		case model.ActionStreamTrack, model.ActionLikeTrack:
			p.TrackID = fmt.Sprintf("track-%d", rand.IntN(200))
		case model.ActionComment:
			p.TrackID = fmt.Sprintf("track-%d", rand.IntN(200))
			length := 10 + rand.IntN(240)
			p.NoteLength = &length
		case model.ActionFollowArtist, model.ActionBackArtist:
			p.ArtistID = fmt.Sprintf("artist-%d", rand.IntN(50))
			followers := rand.IntN(200_000)
			p.ArtistFollowerCount = &followers
		}

		if cfg.DupeRatio > 0 && len(out) > 0 && rand.Float64() < cfg.DupeRatio {
			p.ActivityID = out[rand.IntN(len(out))].ActivityID
		}
		out = append(out, p)
	}
	return out
}
