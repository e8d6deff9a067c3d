package domain

// Collection names one of the document collections the core persists.
type Collection string

// Collections managed by the store
const (
	CollectionPlayers     Collection = "players"
	CollectionWorlds      Collection = "worlds"
	CollectionMarketplace Collection = "marketplace"
	CollectionGuilds      Collection = "guilds"
	CollectionAnalytics   Collection = "analytics"
)

// Collections lists every collection in creation order.
var Collections = []Collection{
	CollectionPlayers,
	CollectionWorlds,
	CollectionMarketplace,
	CollectionGuilds,
	CollectionAnalytics,
}

// IDField returns the document field holding the collection's primary key.
func (c Collection) IDField() string {
	switch c {
	case CollectionPlayers:
		return "player_id"
	case CollectionWorlds:
		return "world_id"
	case CollectionMarketplace:
		return "listing_id"
	case CollectionGuilds:
		return "guild_id"
	case CollectionAnalytics:
		return "event_id"
	default:
		return "id"
	}
}

// Valid reports whether c is a known collection.
func (c Collection) Valid() bool {
	for _, known := range Collections {
		if c == known {
			return true
		}
	}
	return false
}

func (c Collection) String() string {
	return string(c)
}
