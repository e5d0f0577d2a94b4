package model

// Allowed enum values, mirrored by CHECK constraints in the schema.

var GameStatuses = []string{"backlog", "wishlist", "started", "completed", "dropped", "shelved"}

var MovieStatuses = []string{"watchlist", "watching", "finished"}

var SeriesStatuses = []string{"watchlist", "watching", "finished", "dropped", "paused"}

var MediaTypes = []string{"game", "movie", "series"}

var GamePlatforms = []string{"pc", "xbox", "switch", "3ds"}

var Storefronts = []string{"steam", "epic", "gog", "battlenet", "uplay", "ea", "xbox"}

// GameTags is the tag allow-list.
var GameTags = []string{"physical", "100%"}

func Contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
