package collector

import (
	"xhscollect/pkg/config"
	"xhscollect/pkg/ratelimit"
)

// Pacing holds the randomized delay ranges applied at each level of a
// collection run.
type Pacing struct {
	// Item is the pause after each successfully fetched note.
	Item ratelimit.Range
	// Page is the pause between search result pages.
	Page ratelimit.Range
	// Keyword is the pause between keywords within a category.
	Keyword ratelimit.Range
	// Category is the pause between categories in a full run.
	Category ratelimit.Range
	// User is the pause between known-user profiles.
	User ratelimit.Range
}

// PacingFromConfig converts the configured delay ranges into durations.
func PacingFromConfig(cfg config.PacingConfig) Pacing {
	return Pacing{
		Item:     ratelimit.Range{Min: cfg.Item.MinDuration(), Max: cfg.Item.MaxDuration()},
		Page:     ratelimit.Range{Min: cfg.Page.MinDuration(), Max: cfg.Page.MaxDuration()},
		Keyword:  ratelimit.Range{Min: cfg.Keyword.MinDuration(), Max: cfg.Keyword.MaxDuration()},
		Category: ratelimit.Range{Min: cfg.Category.MinDuration(), Max: cfg.Category.MaxDuration()},
		User:     ratelimit.Range{Min: cfg.User.MinDuration(), Max: cfg.User.MaxDuration()},
	}
}
