package validation

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/nexumi/nexumi-core/internal/domain"
)

// rule checks invariants spanning more than one field. It returns a
// field -> message map of violations, or an error if the body is malformed.
type rule func(body []byte) (map[string]string, error)

func crossFieldRules() map[domain.Collection]rule {
	return map[domain.Collection]rule{
		domain.CollectionPlayers:     decoded(checkPlayer),
		domain.CollectionMarketplace: decoded(checkListing),
		domain.CollectionGuilds:      decoded(checkGuild),
	}
}

func decoded[T any](check func(*T, map[string]string)) rule {
	return func(body []byte) (map[string]string, error) {
		var v T
		if err := json.Unmarshal(body, &v); err != nil {
			return nil, fmt.Errorf("document does not decode: %w", err)
		}
		fields := make(map[string]string)
		check(&v, fields)
		return fields, nil
	}
}

func checkPlayer(p *domain.Player, fields map[string]string) {
	if p.Health > p.MaxHealth {
		fields["health"] = "must not exceed max_health"
	}
	for slot, itemID := range p.EquippedItems {
		if itemID != "" && p.CountItem(itemID) == 0 {
			fields["equipped_items."+slot] = "equipped item is not in inventory"
		}
	}
}

func checkListing(l *domain.Listing, fields map[string]string) {
	if !l.ExpiresAt.After(l.CreatedAt) {
		fields["expires_at"] = "must be after created_at"
	}
	if len(l.ReservedItems) > 0 {
		if domain.TotalQuantity(l.ReservedItems) != l.Quantity {
			fields["reserved_items"] = "must add up to quantity"
		}
		for i, it := range l.ReservedItems {
			if it.ItemID != l.ItemID {
				fields["reserved_items."+strconv.Itoa(i)+".item_id"] = "must match item_id"
			}
		}
	}
	if l.Status == domain.ListingSold && l.BuyerID == "" {
		fields["buyer_id"] = "is required once sold"
	}
}

func checkGuild(g *domain.Guild, fields map[string]string) {
	if len(g.Members) > g.MaxMembers {
		fields["members"] = "must not exceed max_members"
	}

	seen := make(map[string]struct{}, len(g.Members))
	leaders := 0
	for i, m := range g.Members {
		if _, dup := seen[m.PlayerID]; dup {
			fields["members."+strconv.Itoa(i)+".player_id"] = "duplicate member"
		}
		seen[m.PlayerID] = struct{}{}

		if m.Role == domain.RoleLeader {
			leaders++
			if m.PlayerID != g.LeaderID {
				fields["members."+strconv.Itoa(i)+".role"] = "leader role held by a member other than leader_id"
			}
		}
	}

	if leaders != 1 {
		fields["members"] = "must contain exactly one leader"
	}
	if _, ok := seen[g.LeaderID]; !ok {
		fields["leader_id"] = "must be a member"
	}
}
