package guild

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/nexumi/nexumi-core/internal/domain"
	"github.com/nexumi/nexumi-core/internal/event"
	"github.com/nexumi/nexumi-core/internal/logger"
	"github.com/nexumi/nexumi-core/internal/store"
	"github.com/nexumi/nexumi-core/internal/telemetry"
)

// TransferLeadership hands the leader role to another member. The old leader
// stays on as an officer.
func (s *service) TransferLeadership(ctx context.Context, guildID, leaderID, newLeaderID string) (guild *domain.Guild, err error) {
	ctx, span := telemetry.Tracer().Start(ctx, "guild.TransferLeadership")
	defer span.End()
	defer func() { record(OpTransfer, err) }()
	span.SetAttributes(attribute.String("guild_id", guildID), attribute.String("target_id", newLeaderID))

	now := s.now()
	snap, err := s.guilds.Update(ctx, guildID, func(g *domain.Guild) error {
		if g.LeaderID != leaderID {
			return domain.ErrNotGuildLeader
		}
		if newLeaderID == leaderID {
			return store.ErrUnchanged
		}
		next := g.Member(newLeaderID)
		if next == -1 {
			return domain.ErrNotGuildMember
		}
		if old := g.Member(leaderID); old != -1 {
			g.Members[old].Role = domain.RoleOfficer
		}
		g.Members[next].Role = domain.RoleLeader
		g.LeaderID = newLeaderID
		g.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, guildNotFound(err)
	}

	logger.FromContext(ctx).Info(LogMsgLeaderTransferred, "guild_id", guildID, "from", leaderID, "to", newLeaderID)
	s.publish(ctx, event.GuildLeadershipChanged, event.GuildPayloadV1{GuildID: guildID, PlayerID: leaderID, TargetID: newLeaderID, Timestamp: now})
	return snap.Value, nil
}

// ChangeRole promotes or demotes a member between officer and member.
// Only the leader may do this; leadership moves through TransferLeadership.
func (s *service) ChangeRole(ctx context.Context, guildID, actorID, targetID string, role domain.GuildRole) (guild *domain.Guild, err error) {
	ctx, span := telemetry.Tracer().Start(ctx, "guild.ChangeRole")
	defer span.End()
	defer func() { record(OpRole, err) }()

	if role != domain.RoleOfficer && role != domain.RoleMember {
		return nil, domain.ErrInvalidRole
	}

	snap, err := s.guilds.Update(ctx, guildID, func(g *domain.Guild) error {
		if g.LeaderID != actorID {
			return domain.ErrNotGuildLeader
		}
		idx := g.Member(targetID)
		if idx == -1 {
			return domain.ErrNotGuildMember
		}
		if g.Members[idx].Role == domain.RoleLeader {
			return domain.ErrInvalidRole
		}
		if g.Members[idx].Role == role {
			return store.ErrUnchanged
		}
		g.Members[idx].Role = role
		g.UpdatedAt = s.now()
		return nil
	})
	if err != nil {
		return nil, guildNotFound(err)
	}
	return snap.Value, nil
}
