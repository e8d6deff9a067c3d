package guild

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/nexumi/nexumi-core/internal/domain"
	"github.com/nexumi/nexumi-core/internal/event"
	"github.com/nexumi/nexumi-core/internal/logger"
	"github.com/nexumi/nexumi-core/internal/telemetry"
)

// Deposit adds amount to the treasury and credits the member's contribution
func (s *service) Deposit(ctx context.Context, guildID, playerID string, amount int) (guild *domain.Guild, err error) {
	ctx, span := telemetry.Tracer().Start(ctx, "guild.Deposit")
	defer span.End()
	defer func() { record(OpDeposit, err) }()
	span.SetAttributes(attribute.String("guild_id", guildID), attribute.Int("amount", amount))

	if amount <= 0 {
		return nil, fmt.Errorf("%w: deposit must be positive", domain.ErrInvalidInput)
	}

	now := s.now()
	snap, err := s.guilds.Update(ctx, guildID, func(g *domain.Guild) error {
		idx := g.Member(playerID)
		if idx == -1 {
			return domain.ErrNotGuildMember
		}
		g.Treasury += amount
		g.Members[idx].ContributionPoints += amount
		g.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, guildNotFound(err)
	}

	s.treasuryChanged(ctx, snap.Value, playerID, amount)
	return snap.Value, nil
}

// Withdraw takes amount out of the treasury. Only the leader and officers may
// withdraw, and never below zero.
func (s *service) Withdraw(ctx context.Context, guildID, playerID string, amount int) (guild *domain.Guild, err error) {
	ctx, span := telemetry.Tracer().Start(ctx, "guild.Withdraw")
	defer span.End()
	defer func() { record(OpWithdraw, err) }()
	span.SetAttributes(attribute.String("guild_id", guildID), attribute.Int("amount", amount))

	if amount <= 0 {
		return nil, fmt.Errorf("%w: withdrawal must be positive", domain.ErrInvalidInput)
	}

	now := s.now()
	snap, err := s.guilds.Update(ctx, guildID, func(g *domain.Guild) error {
		idx := g.Member(playerID)
		if idx == -1 {
			return domain.ErrNotGuildMember
		}
		if role := g.Members[idx].Role; role != domain.RoleLeader && role != domain.RoleOfficer {
			return domain.ErrNotTreasurer
		}
		if g.Treasury < amount {
			return domain.ErrInsufficientTreasury
		}
		g.Treasury -= amount
		g.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, guildNotFound(err)
	}

	s.treasuryChanged(ctx, snap.Value, playerID, -amount)
	return snap.Value, nil
}

func (s *service) treasuryChanged(ctx context.Context, g *domain.Guild, playerID string, delta int) {
	logger.FromContext(ctx).Info(LogMsgTreasuryChanged, "guild_id", g.GuildID, "player_id", playerID, "delta", delta, "treasury", g.Treasury)
	s.publish(ctx, event.GuildTreasuryChanged, event.GuildPayloadV1{
		GuildID:   g.GuildID,
		PlayerID:  playerID,
		Amount:    delta,
		Treasury:  g.Treasury,
		Timestamp: s.now(),
	})
}
