package guild

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/nexumi/nexumi-core/internal/compensation"
	"github.com/nexumi/nexumi-core/internal/domain"
	"github.com/nexumi/nexumi-core/internal/event"
	"github.com/nexumi/nexumi-core/internal/logger"
	"github.com/nexumi/nexumi-core/internal/store"
	"github.com/nexumi/nexumi-core/internal/telemetry"
)

// Create inserts the guild with the creator as its only member and leader,
// then links the creator. The guild is deleted again if the link fails.
func (s *service) Create(ctx context.Context, creatorID string, req CreateRequest) (guild *domain.Guild, err error) {
	ctx, span := telemetry.Tracer().Start(ctx, "guild.Create")
	defer span.End()
	defer func() { record(OpCreate, err) }()
	span.SetAttributes(attribute.String("player_id", creatorID))

	maxMembers := req.MaxMembers
	if maxMembers == 0 {
		maxMembers = s.cfg.DefaultMaxMembers
	}
	if maxMembers < 1 || maxMembers > domain.MaxGuildMembers {
		return nil, fmt.Errorf("%w: max members must be between 1 and %d", domain.ErrInvalidInput, domain.MaxGuildMembers)
	}

	creator, err := s.activePlayer(ctx, creatorID)
	if err != nil {
		return nil, err
	}
	stale, err := s.staleGuildRef(ctx, creator)
	if err != nil {
		return nil, err
	}
	if creator.InGuild() && stale == "" {
		return nil, domain.ErrAlreadyInGuild
	}

	now := s.now()
	name := strings.TrimSpace(req.Name)
	g := &domain.Guild{
		GuildID:     s.newID(),
		Name:        name,
		NameKey:     domain.FoldKey(name),
		Tag:         strings.TrimSpace(req.Tag),
		Description: req.Description,
		LeaderID:    creatorID,
		Members: []domain.GuildMember{{
			PlayerID: creatorID,
			Username: creator.Username,
			Role:     domain.RoleLeader,
			JoinedAt: now,
		}},
		Level:      1,
		MaxMembers: maxMembers,
		Requirements: domain.GuildRequirements{
			MinLevel:            req.MinLevel,
			ApplicationRequired: req.ApplicationRequired,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	snap, err := s.guilds.Create(ctx, g)
	if err != nil {
		return nil, err
	}

	plan := compensation.New(OpCreate, map[string]string{"guild_id": g.GuildID, "player_id": creatorID}, s.bus)
	plan.Committed(StepCreateGuild, func(ctx context.Context) error {
		return s.guilds.Delete(ctx, g.GuildID, nil)
	})
	if err := s.linkPlayer(ctx, creatorID, g.GuildID, stale); err != nil {
		_ = plan.Rollback(ctx, err)
		return nil, err
	}

	logger.FromContext(ctx).Info(LogMsgGuildCreated, "guild_id", g.GuildID, "name", name, "leader_id", creatorID)
	s.publish(ctx, event.GuildCreated, event.GuildPayloadV1{GuildID: g.GuildID, PlayerID: creatorID, Timestamp: now})
	return snap.Value, nil
}

// Join adds the player as a member. The guild record is written first so
// capacity is enforced by its version check, then the player is linked.
func (s *service) Join(ctx context.Context, guildID, playerID string) (guild *domain.Guild, err error) {
	ctx, span := telemetry.Tracer().Start(ctx, "guild.Join")
	defer span.End()
	defer func() { record(OpJoin, err) }()
	span.SetAttributes(attribute.String("guild_id", guildID), attribute.String("player_id", playerID))

	p, err := s.activePlayer(ctx, playerID)
	if err != nil {
		return nil, err
	}
	current, err := s.Get(ctx, guildID)
	if err != nil {
		return nil, err
	}
	if current.Member(playerID) != -1 {
		return nil, domain.ErrAlreadyGuildMember
	}
	stale, err := s.staleGuildRef(ctx, p)
	if err != nil {
		return nil, err
	}
	if p.InGuild() && stale == "" {
		return nil, domain.ErrAlreadyInGuild
	}
	if p.Level < current.Requirements.MinLevel {
		return nil, domain.ErrLevelTooLow
	}
	if current.Requirements.ApplicationRequired {
		if err := s.approve(ctx, current, playerID); err != nil {
			return nil, err
		}
	}

	now := s.now()
	snap, err := s.guilds.Update(ctx, guildID, func(g *domain.Guild) error {
		if g.Member(playerID) != -1 {
			return domain.ErrAlreadyGuildMember
		}
		if g.IsFull() {
			return domain.ErrGuildFull
		}
		g.Members = append(g.Members, domain.GuildMember{
			PlayerID: playerID,
			Username: p.Username,
			Role:     domain.RoleMember,
			JoinedAt: now,
		})
		g.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, guildNotFound(err)
	}

	plan := compensation.New(OpJoin, map[string]string{"guild_id": guildID, "player_id": playerID}, s.bus)
	plan.Committed(StepAddMember, func(ctx context.Context) error {
		_, err := s.guilds.Update(ctx, guildID, func(g *domain.Guild) error {
			if g.Member(playerID) == -1 {
				return store.ErrUnchanged
			}
			g.RemoveMember(playerID)
			return nil
		})
		return err
	})
	if err := s.linkPlayer(ctx, playerID, guildID, stale); err != nil {
		_ = plan.Rollback(ctx, err)
		return nil, err
	}

	logger.FromContext(ctx).Info(LogMsgMemberJoined, "guild_id", guildID, "player_id", playerID)
	s.publish(ctx, event.GuildMemberJoined, event.GuildPayloadV1{GuildID: guildID, PlayerID: playerID, Timestamp: now})
	return snap.Value, nil
}

func (s *service) approve(ctx context.Context, g *domain.Guild, playerID string) error {
	if s.approver == nil {
		return domain.ErrApplicationRequired
	}
	ok, err := s.approver.Approve(ctx, g, playerID)
	if err != nil {
		return fmt.Errorf("guild application check failed: %w", err)
	}
	if !ok {
		return domain.ErrApplicationRequired
	}
	return nil
}

// Leave removes a member. A leader with other members must transfer
// leadership first; a leader who is the only member disbands the guild.
func (s *service) Leave(ctx context.Context, guildID, playerID string) (result *LeaveResult, err error) {
	ctx, span := telemetry.Tracer().Start(ctx, "guild.Leave")
	defer span.End()
	defer func() { record(OpLeave, err) }()
	span.SetAttributes(attribute.String("guild_id", guildID), attribute.String("player_id", playerID))

	current, err := s.Get(ctx, guildID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	result = &LeaveResult{}
	if current.LeaderID == playerID {
		err = s.guilds.Delete(ctx, guildID, func(g *domain.Guild) error {
			if g.LeaderID != playerID {
				return domain.ErrNotGuildLeader
			}
			if len(g.Members) > 1 {
				return domain.ErrLeaderMustTransfer
			}
			return nil
		})
		if err != nil {
			return nil, guildNotFound(err)
		}
		result.Disbanded = true
	} else {
		snap, err := s.guilds.Update(ctx, guildID, func(g *domain.Guild) error {
			idx := g.Member(playerID)
			if idx == -1 {
				return domain.ErrNotGuildMember
			}
			if g.Members[idx].Role == domain.RoleLeader {
				return domain.ErrLeaderMustTransfer
			}
			g.RemoveMember(playerID)
			g.UpdatedAt = now
			return nil
		})
		if err != nil {
			return nil, guildNotFound(err)
		}
		result.Guild = snap.Value
	}

	if err := s.unlinkPlayer(ctx, playerID, guildID); err != nil {
		// the membership change is committed; the stale reference is ignored by later joins
		plan := compensation.New(OpLeave, map[string]string{"guild_id": guildID, "player_id": playerID}, s.bus)
		plan.Report(ctx, StepUnlinkPlayer, nil, err)
	}

	log := logger.FromContext(ctx)
	if result.Disbanded {
		log.Info(LogMsgGuildDisbanded, "guild_id", guildID, "player_id", playerID)
		s.publish(ctx, event.GuildDisbanded, event.GuildPayloadV1{GuildID: guildID, PlayerID: playerID, Timestamp: now})
	} else {
		log.Info(LogMsgMemberLeft, "guild_id", guildID, "player_id", playerID)
		s.publish(ctx, event.GuildMemberLeft, event.GuildPayloadV1{GuildID: guildID, PlayerID: playerID, Timestamp: now})
	}
	return result, nil
}
