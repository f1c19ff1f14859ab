// Package discordbot connects the role grant workflow to a Discord guild.
package discordbot

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/PaulFidika/vipbridge/core"
	"github.com/PaulFidika/vipbridge/lang"
	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
)

const (
	CommandName        = "get-role"
	CommandDescription = "Assign the VIP role to your account if eligible"

	// Discord drops interaction responses sent later than three seconds.
	grantTimeout = 2500 * time.Millisecond
)

// Granter runs the role grant workflow.
type Granter interface {
	GrantRole(ctx context.Context, req core.Request) core.Reply
}

type responder interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
}

// Config configures a Bot.
type Config struct {
	Token   string
	GuildID string
}

// Bot owns the gateway session and the guild command registration.
type Bot struct {
	cfg     Config
	session *discordgo.Session
	granter Granter
	log     logrus.FieldLogger

	mu       sync.Mutex
	commands []*discordgo.ApplicationCommand
}

// New creates the session without connecting. Members returns a core.MemberClient
// bound to it, so the workflow can be built before the bot starts.
func New(cfg Config, log logrus.FieldLogger) (*Bot, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("discord: bot token is required")
	}
	if strings.TrimSpace(cfg.GuildID) == "" {
		return nil, errors.New("discord: guild id is required")
	}
	s, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, err
	}
	s.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMembers
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Bot{cfg: cfg, session: s, log: log.WithField("component", "discord")}, nil
}

// Members returns the REST-backed member client.
func (b *Bot) Members() *Members { return NewMembers(b.session) }

// Start attaches the interaction handler, opens the gateway and registers the
// guild command. A registration failure is logged; the bot keeps serving.
func (b *Bot) Start(g Granter) error {
	b.granter = g
	b.session.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		b.dispatch(context.Background(), s, i)
	})
	b.session.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) {
		b.log.WithField("user", r.User.Username).Info("discord session ready")
	})
	if err := b.session.Open(); err != nil {
		return err
	}

	b.log.Info("registering slash commands")
	cmd, err := b.session.ApplicationCommandCreate(b.session.State.User.ID, b.cfg.GuildID, Command())
	if err != nil {
		b.log.WithError(err).Error("slash command registration failed")
		return nil
	}
	b.mu.Lock()
	b.commands = append(b.commands, cmd)
	b.mu.Unlock()
	b.log.WithField("command", cmd.Name).Info("slash commands registered")
	return nil
}

// Close removes the commands this process registered and closes the gateway.
func (b *Bot) Close() error {
	b.mu.Lock()
	cmds := b.commands
	b.commands = nil
	b.mu.Unlock()

	for _, c := range cmds {
		if err := b.session.ApplicationCommandDelete(c.ApplicationID, b.cfg.GuildID, c.ID); err != nil {
			b.log.WithError(err).WithField("command", c.Name).Warn("slash command removal failed")
		}
	}
	return b.session.Close()
}

// Command is the guild slash command definition.
func Command() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        CommandName,
		Description: CommandDescription,
		DescriptionLocalizations: &map[discordgo.Locale]string{
			discordgo.SpanishES: "Asigna el rol VIP a tu cuenta si cumples los requisitos",
		},
	}
}

func (b *Bot) dispatch(ctx context.Context, r responder, i *discordgo.InteractionCreate) {
	req, ok := requestFor(i, b.cfg.GuildID)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(lang.WithLanguage(ctx, string(i.Locale)), grantTimeout)
	defer cancel()

	reply := b.granter.GrantRole(ctx, req)
	if err := r.InteractionRespond(i.Interaction, responseFor(reply)); err != nil {
		b.log.WithError(err).WithFields(logrus.Fields{
			"user_id": req.UserID,
			"outcome": reply.Outcome,
		}).Error("interaction reply failed")
	}
}

// requestFor accepts only the get-role command invoked by a member of guildID.
func requestFor(i *discordgo.InteractionCreate, guildID string) (core.Request, bool) {
	if i == nil || i.Interaction == nil || i.Type != discordgo.InteractionApplicationCommand {
		return core.Request{}, false
	}
	if i.ApplicationCommandData().Name != CommandName {
		return core.Request{}, false
	}
	if i.GuildID != guildID || i.Member == nil || i.Member.User == nil {
		return core.Request{}, false
	}
	return core.Request{UserID: i.Member.User.ID}, true
}

func responseFor(r core.Reply) *discordgo.InteractionResponse {
	data := &discordgo.InteractionResponseData{Content: r.Content}
	if r.Ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	}
}
