// Package discord answers rank card commands from Discord interactions.
package discord

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/okian/levelcard/internal/adapters/avatar"
	"github.com/okian/levelcard/internal/domain/card"
	"github.com/okian/levelcard/internal/domain/dedupe"
	"github.com/okian/levelcard/internal/domain/levels"
	"github.com/okian/levelcard/pkg/logger"
	"github.com/okian/levelcard/pkg/metrics"
)

const (
	defaultRenderTimeout = 10 * time.Second
	cardFilename         = "card.png"

	messageBadInteraction = "Discord sent something I don't understand. Please try again."
	messageNoGuild        = "Levels are only tracked inside servers."
	messageLookupFailed   = "I couldn't look up that level right now. Please try again later."
)

// Interaction outcomes reported to metrics.
const (
	outcomeCard         = "card"
	outcomeBot          = "bot"
	outcomeUnranked     = "unranked"
	outcomeInvalid      = "invalid"
	outcomeLookupFailed = "lookup_failed"
	outcomeRenderFailed = "render_failed"
	outcomeDuplicate    = "duplicate"
)

// Responder is the part of a discordgo session used to answer.
type Responder interface {
	InteractionRespond(i *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	FollowupMessageCreate(i *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Store reads levels and customizations.
type Store interface {
	XP(ctx context.Context, guild, user string) (uint64, error)
	Rank(ctx context.Context, guild string, xp uint64) (int64, error)
	Customization(ctx context.Context, user string) (card.Customization, error)
}

// CardRenderer draws cards.
type CardRenderer interface {
	Render(ctx context.Context, c card.Context) ([]byte, error)
}

// AvatarSource turns an avatar URL into a data URI.
type AvatarSource interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Handler answers application command interactions.
type Handler struct {
	store         Store
	renderer      CardRenderer
	avatars       AvatarSource
	renderTimeout time.Duration
	seen          dedupe.Deduper
	logger        logger.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithRenderTimeout bounds avatar download plus render.
func WithRenderTimeout(d time.Duration) Option {
	return func(h *Handler) {
		if d > 0 {
			h.renderTimeout = d
		}
	}
}

// WithDeduper replaces the window of recently answered interaction IDs.
func WithDeduper(d dedupe.Deduper) Option {
	return func(h *Handler) {
		if d != nil {
			h.seen = d
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

// NewHandler creates a Handler. avatars may be nil to draw cards without
// avatars.
func NewHandler(store Store, renderer CardRenderer, avatars AvatarSource, opts ...Option) *Handler {
	h := &Handler{
		store:         store,
		renderer:      renderer,
		avatars:       avatars,
		renderTimeout: defaultRenderTimeout,
		seen:          dedupe.NewWindow(),
		logger:        logger.Get().Named("discord"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// OnInteractionCreate is the discordgo event handler.
func (h *Handler) OnInteractionCreate(s *discordgo.Session, ev *discordgo.InteractionCreate) {
	_ = h.Handle(context.Background(), s, ev.Interaction)
}

// Handle answers one interaction. Every application command gets a reply,
// even when the returned error is non-nil. Redelivered interactions are
// dropped.
func (h *Handler) Handle(ctx context.Context, r Responder, i *discordgo.Interaction) error {
	if i == nil || i.Type != discordgo.InteractionApplicationCommand {
		return nil
	}
	start := time.Now()
	data := i.ApplicationCommandData()
	command := data.Name

	if i.ID != "" && h.seen.SeenAndRecord(ctx, i.ID) {
		metrics.RecordInteraction(command, outcomeDuplicate)
		return nil
	}

	outcome, err := h.handle(ctx, r, i, &data)
	if errors.Is(err, ErrRespond) && i.ID != "" {
		// Nothing reached Discord; let a redelivery try again.
		h.seen.Unrecord(ctx, i.ID)
	}
	metrics.RecordInteraction(command, outcome)
	metrics.RecordInteractionLatency(command, time.Since(start))
	if err != nil {
		h.logger.Warn(ctx, "interaction failed",
			logger.String("command", command),
			logger.String("outcome", outcome),
			logger.Error(err),
		)
	}
	return err
}

func (h *Handler) handle(ctx context.Context, r Responder, i *discordgo.Interaction, data *discordgo.ApplicationCommandInteractionData) (string, error) {
	caller, err := invoker(i)
	if err != nil {
		return outcomeInvalid, errors.Join(err, h.reply(r, i, messageBadInteraction))
	}
	user, err := target(data, caller)
	if err != nil {
		return outcomeInvalid, errors.Join(err, h.reply(r, i, messageBadInteraction))
	}
	if user.Bot {
		return outcomeBot, h.reply(r, i, card.MessageBot)
	}
	if i.GuildID == "" {
		return outcomeInvalid, errors.Join(ErrNoGuild, h.reply(r, i, messageNoGuild))
	}

	xp, err := h.store.XP(ctx, i.GuildID, user.ID)
	if err != nil {
		return outcomeLookupFailed, errors.Join(err, h.reply(r, i, messageLookupFailed))
	}
	if xp == 0 {
		msg := card.UnrankedMessage(user.Username, user.Discriminator)
		if user.ID == caller.ID {
			msg = card.MessageSelfUnranked
		}
		return outcomeUnranked, h.reply(r, i, msg)
	}

	preview := data.Name == CommandCard
	var flags discordgo.MessageFlags
	if preview {
		flags = discordgo.MessageFlagsEphemeral
	}
	if err := r.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: flags},
	}); err != nil {
		return outcomeRenderFailed, fmt.Errorf("%w: %w", ErrRespond, err)
	}

	png, text, err := h.renderCard(ctx, i.GuildID, user, xp, preview)
	if err != nil {
		return outcomeRenderFailed, errors.Join(err, h.followup(r, i, &discordgo.WebhookParams{
			Content: card.MessageRenderFailed,
			Flags:   flags,
		}))
	}
	return outcomeCard, h.followup(r, i, &discordgo.WebhookParams{
		Content:         text,
		Flags:           flags,
		AllowedMentions: &discordgo.MessageAllowedMentions{},
		Files: []*discordgo.File{{
			Name:        cardFilename,
			ContentType: "image/png",
			Reader:      bytes.NewReader(png),
		}},
	})
}

// renderCard builds the context for user and draws it. The card command
// also describes the stored customization.
func (h *Handler) renderCard(ctx context.Context, guild string, user *discordgo.User, xp uint64, preview bool) ([]byte, string, error) {
	ctx, cancel := context.WithTimeout(ctx, h.renderTimeout)
	defer cancel()

	info := levels.NewInfo(xp)
	rank, err := h.store.Rank(ctx, guild, xp)
	if err != nil {
		return nil, "", err
	}
	custom, err := h.store.Customization(ctx, user.ID)
	if err != nil {
		h.logger.Warn(ctx, "customization lookup failed, using defaults", logger.Error(err))
		custom = card.DefaultCustomization()
	}

	c := card.NewContext(info, rank, user.Username, user.Discriminator, custom, h.avatar(ctx, user))
	png, err := h.renderer.Render(ctx, c)
	if err != nil {
		return nil, "", err
	}

	text := card.Summary(user.Username, user.Discriminator, info, rank)
	if preview {
		text = custom.Describe()
	}
	return png, text, nil
}

// avatar returns the user's avatar as a data URI, or "" to draw without.
func (h *Handler) avatar(ctx context.Context, user *discordgo.User) string {
	if h.avatars == nil {
		return ""
	}
	uri, err := h.avatars.Fetch(ctx, avatar.URL(user.ID, user.Avatar, user.Discriminator))
	if err != nil {
		h.logger.Warn(ctx, "avatar fetch failed", logger.String("user", user.ID), logger.Error(err))
		return ""
	}
	return uri
}

func (h *Handler) reply(r Responder, i *discordgo.Interaction, content string) error {
	err := r.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRespond, err)
	}
	return nil
}

func (h *Handler) followup(r Responder, i *discordgo.Interaction, params *discordgo.WebhookParams) error {
	_, err := r.FollowupMessageCreate(i, true, params)
	return err
}
