package domain

import "time"

// GuildRole is a member's rank inside a guild
type GuildRole string

// Guild roles
const (
	RoleLeader  GuildRole = "leader"
	RoleOfficer GuildRole = "officer"
	RoleMember  GuildRole = "member"
)

// GuildMember is a non-owning back-reference to a player
type GuildMember struct {
	PlayerID           string    `json:"player_id"`
	Username           string    `json:"username"`
	Role               GuildRole `json:"role"`
	JoinedAt           time.Time `json:"joined_at"`
	ContributionPoints int       `json:"contribution_points"`
}

// GuildRequirements gate who may join
type GuildRequirements struct {
	MinLevel            int  `json:"min_level"`
	ApplicationRequired bool `json:"application_required"`
}

// GuildPerks are bonuses granted to members
type GuildPerks struct {
	ExpBonus      float64 `json:"exp_bonus"`
	ResourceBonus float64 `json:"resource_bonus"`
}

// Guild is the persisted guild document.
// The leader is always a member with RoleLeader and there is exactly one.
type Guild struct {
	GuildID      string            `json:"guild_id"`
	Name         string            `json:"name"`
	NameKey      string            `json:"name_key"`
	Tag          string            `json:"tag,omitempty"`
	Description  string            `json:"description,omitempty"`
	LeaderID     string            `json:"leader_id"`
	Members      []GuildMember     `json:"members"`
	Level        int               `json:"level"`
	Experience   int               `json:"experience"`
	Treasury     int               `json:"treasury"`
	MaxMembers   int               `json:"max_members"`
	Requirements GuildRequirements `json:"requirements"`
	Perks        GuildPerks        `json:"perks"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// GuildIDOf returns the document id
func GuildIDOf(g *Guild) string {
	return g.GuildID
}

// Member returns the index of playerID in Members, or -1
func (g *Guild) Member(playerID string) int {
	for i, m := range g.Members {
		if m.PlayerID == playerID {
			return i
		}
	}
	return -1
}

// IsFull reports whether the guild is at capacity
func (g *Guild) IsFull() bool {
	return len(g.Members) >= g.MaxMembers
}

// RemoveMember drops playerID from Members and reports whether it was present
func (g *Guild) RemoveMember(playerID string) bool {
	idx := g.Member(playerID)
	if idx == -1 {
		return false
	}
	g.Members = append(g.Members[:idx], g.Members[idx+1:]...)
	return true
}
