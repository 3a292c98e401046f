// Package rewards defines the point value assigned to each reward-earning
// action kind.
package rewards

import (
	"context"
	"fmt"

	"github.com/lumina-social/lumina/internal/domain/model"
)

// DefaultPoints is the stock point catalog. Values can be overridden per
// deployment through configuration; unknown actions are always rejected.
func DefaultPoints() map[model.Action]int {
	return map[model.Action]int{
		model.ActionCreateProfile:     100,
		model.ActionFollowArtist:      10,
		model.ActionLikeTrack:         5,
		model.ActionComment:           15,
		model.ActionBackArtist:        20,
		model.ActionStreamTrack:       2,
		model.ActionDailyLogin:        20,
		model.ActionReferFriend:       500,
		model.ActionWeeklyTopListener: 1000,
	}
}

// Option applies a configuration option to the Valuer.
type Option func(*Valuer)

// WithPointOverrides replaces point values for the listed actions.
// Overrides for unknown actions and non-positive values are ignored.
func WithPointOverrides(overrides map[string]int) Option {
	return func(v *Valuer) {
		for name, points := range overrides {
			action := model.Action(name)
			if _, ok := v.points[action]; !ok {
				continue
			}
			if points > 0 {
				v.points[action] = points
			}
		}
	}
}

// Valuer maps action kinds to point values.
type Valuer struct {
	points map[model.Action]int
}

// NewValuer creates a Valuer from the default catalog plus options.
func NewValuer(opts ...Option) *Valuer {
	v := &Valuer{points: DefaultPoints()}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Value returns the point value for the given action.
func (v *Valuer) Value(_ context.Context, action model.Action) (int, error) {
	points, ok := v.points[action]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownAction, action)
	}
	return points, nil
}

// Known reports whether the action kind is part of the catalog.
func (v *Valuer) Known(action model.Action) bool {
	_, ok := v.points[action]
	return ok
}
