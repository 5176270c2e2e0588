package channels

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/parleybot/parley/pkg/bus"
	"github.com/parleybot/parley/pkg/config"
	"github.com/parleybot/parley/pkg/logger"
)

const (
	sendTimeout = 10 * time.Second

	// Discord caps messages at 2000 characters; leave headroom so a chunk
	// boundary can move to a natural split point.
	messageLimit = 1950
)

type DiscordChannel struct {
	*BaseChannel
	session *discordgo.Session
	config  config.DiscordConfig
}

func NewDiscordChannel(cfg config.DiscordConfig, bus *bus.MessageBus) (*DiscordChannel, error) {
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentsGuildVoiceStates |
		discordgo.IntentsGuildMembers |
		discordgo.IntentMessageContent

	return &DiscordChannel{
		BaseChannel: NewBaseChannel("discord", bus, cfg.AllowFrom),
		session:     session,
		config:      cfg,
	}, nil
}

func (c *DiscordChannel) Start(ctx context.Context) error {
	logger.InfoC("discord", "Starting Discord bot")

	c.session.AddHandler(c.handleMessage)
	c.session.AddHandler(c.handleReactionAdd)

	if err := c.session.Open(); err != nil {
		return fmt.Errorf("failed to open discord session: %w", err)
	}
	c.setRunning(true)

	botUser, err := c.session.User("@me")
	if err != nil {
		return fmt.Errorf("failed to get bot user: %w", err)
	}
	logger.InfoCF("discord", "Discord bot connected", map[string]any{
		"username": botUser.Username,
		"user_id":  botUser.ID,
	})
	return nil
}

func (c *DiscordChannel) Stop(ctx context.Context) error {
	logger.InfoC("discord", "Stopping Discord bot")
	c.setRunning(false)

	if err := c.session.Close(); err != nil {
		return fmt.Errorf("failed to close discord session: %w", err)
	}
	return nil
}

func (c *DiscordChannel) handleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.ID == s.State.User.ID || m.Author.Bot {
		return
	}
	if !c.IsAllowed(m.Author.ID, m.Author.Username) {
		return
	}

	mentionsBot := false
	var userMentions []string
	for _, u := range m.Mentions {
		if u.ID == s.State.User.ID {
			mentionsBot = true
			continue
		}
		userMentions = append(userMentions, u.ID)
	}

	chatName := ""
	if ch, err := s.State.Channel(m.ChannelID); err == nil {
		chatName = ch.Name
	}

	c.bus.PublishInbound(bus.InboundMessage{
		Channel:      c.Name(),
		MessageID:    m.ID,
		ChatID:       m.ChannelID,
		ChatName:     chatName,
		GuildID:      m.GuildID,
		SenderID:     m.Author.ID,
		SenderName:   m.Author.Username,
		Content:      m.Content,
		CleanContent: m.ContentWithMentionsReplaced(),
		IsDM:         m.GuildID == "",
		MentionsBot:  mentionsBot,
		UserMentions: userMentions,
		RoleMentions: m.MentionRoles,
	})
}

func (c *DiscordChannel) handleReactionAdd(s *discordgo.Session, r *discordgo.MessageReactionAdd) {
	if r.UserID == s.State.User.ID {
		return
	}

	c.bus.PublishReaction(bus.ReactionEvent{
		Channel:   c.Name(),
		GuildID:   r.GuildID,
		ChatID:    r.ChannelID,
		MessageID: r.MessageID,
		UserID:    r.UserID,
		Emoji:     r.Emoji.Name,
	})
}

func (c *DiscordChannel) Self(ctx context.Context) (User, error) {
	if u := c.session.State.User; u != nil {
		return User{ID: u.ID, Name: u.Username}, nil
	}
	u, err := c.session.User("@me")
	if err != nil {
		return User{}, fmt.Errorf("failed to fetch bot user: %w", err)
	}
	return User{ID: u.ID, Name: u.Username}, nil
}

func (c *DiscordChannel) Send(ctx context.Context, chatID, content string) ([]string, error) {
	if !c.IsRunning() {
		return nil, fmt.Errorf("discord bot not running")
	}
	if chatID == "" {
		return nil, fmt.Errorf("channel ID is empty")
	}
	if strings.TrimSpace(content) == "" {
		return nil, nil
	}

	var ids []string
	for _, chunk := range splitMessage(content, messageLimit) {
		id, err := c.sendChunk(ctx, chatID, chunk)
		if err != nil {
			return ids, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (c *DiscordChannel) SendDM(ctx context.Context, userID, content string) ([]string, error) {
	ch, err := c.session.UserChannelCreate(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to open DM channel: %w", wrapNotFound(err))
	}
	return c.Send(ctx, ch.ID, content)
}

func (c *DiscordChannel) sendChunk(ctx context.Context, chatID, content string) (string, error) {
	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	type result struct {
		id  string
		err error
	}
	done := make(chan result, 1)
	go func() {
		msg, err := c.session.ChannelMessageSend(chatID, content)
		if err != nil {
			done <- result{err: err}
			return
		}
		done <- result{id: msg.ID}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return "", fmt.Errorf("failed to send discord message: %w", wrapNotFound(res.err))
		}
		return res.id, nil
	case <-sendCtx.Done():
		return "", fmt.Errorf("send message timeout: %w", sendCtx.Err())
	}
}

func (c *DiscordChannel) Edit(ctx context.Context, chatID, messageID, content string) error {
	if _, err := c.session.ChannelMessageEdit(chatID, messageID, content); err != nil {
		return fmt.Errorf("failed to edit discord message: %w", wrapNotFound(err))
	}
	return nil
}

func (c *DiscordChannel) Delete(ctx context.Context, chatID, messageID string) error {
	if err := c.session.ChannelMessageDelete(chatID, messageID); err != nil {
		return fmt.Errorf("failed to delete discord message: %w", wrapNotFound(err))
	}
	return nil
}

func (c *DiscordChannel) Message(ctx context.Context, chatID, messageID string) (Message, error) {
	m, err := c.session.ChannelMessage(chatID, messageID)
	if err != nil {
		return Message{}, fmt.Errorf("failed to fetch discord message: %w", wrapNotFound(err))
	}
	return toMessage(m), nil
}

func (c *DiscordChannel) History(ctx context.Context, chatID string, limit int, beforeID string) ([]Message, error) {
	msgs, err := c.session.ChannelMessages(chatID, limit, beforeID, "", "")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch channel history: %w", wrapNotFound(err))
	}

	out := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, toMessage(m))
	}
	return out, nil
}

func (c *DiscordChannel) UserByID(ctx context.Context, userID string) (User, error) {
	u, err := c.session.User(userID)
	if err != nil {
		return User{}, fmt.Errorf("failed to fetch discord user: %w", wrapNotFound(err))
	}
	return User{ID: u.ID, Name: u.Username}, nil
}

func (c *DiscordChannel) React(ctx context.Context, chatID, messageID, emoji string) error {
	if err := c.session.MessageReactionAdd(chatID, messageID, emoji); err != nil {
		return fmt.Errorf("failed to add reaction: %w", wrapNotFound(err))
	}
	return nil
}

func (c *DiscordChannel) Unreact(ctx context.Context, chatID, messageID, emoji, userID string) error {
	if err := c.session.MessageReactionRemove(chatID, messageID, emoji, userID); err != nil {
		return fmt.Errorf("failed to remove reaction: %w", wrapNotFound(err))
	}
	return nil
}

func (c *DiscordChannel) GuildRoles(ctx context.Context, guildID string) ([]Role, error) {
	roles, err := c.session.GuildRoles(guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch guild roles: %w", wrapNotFound(err))
	}

	out := make([]Role, 0, len(roles))
	for _, r := range roles {
		out = append(out, Role{ID: r.ID, Name: r.Name})
	}
	return out, nil
}

func (c *DiscordChannel) MemberRoles(ctx context.Context, guildID, userID string) ([]string, error) {
	member, err := c.session.GuildMember(guildID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch guild member: %w", wrapNotFound(err))
	}
	return member.Roles, nil
}

func (c *DiscordChannel) AddMemberRole(ctx context.Context, guildID, userID, roleID string) error {
	if err := c.session.GuildMemberRoleAdd(guildID, userID, roleID); err != nil {
		return fmt.Errorf("failed to add member role: %w", wrapNotFound(err))
	}
	return nil
}

func (c *DiscordChannel) RemoveMemberRole(ctx context.Context, guildID, userID, roleID string) error {
	if err := c.session.GuildMemberRoleRemove(guildID, userID, roleID); err != nil {
		return fmt.Errorf("failed to remove member role: %w", wrapNotFound(err))
	}
	return nil
}

// VoiceMembers lists everyone in the voice channel that userID currently
// occupies. A user outside any voice channel yields an empty list.
func (c *DiscordChannel) VoiceMembers(ctx context.Context, guildID, userID string) ([]User, error) {
	guild, err := c.session.State.Guild(guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve guild: %w", wrapNotFound(err))
	}

	voiceChannel := ""
	for _, vs := range guild.VoiceStates {
		if vs.UserID == userID {
			voiceChannel = vs.ChannelID
			break
		}
	}
	if voiceChannel == "" {
		return nil, nil
	}

	var members []User
	for _, vs := range guild.VoiceStates {
		if vs.ChannelID != voiceChannel {
			continue
		}
		u, err := c.UserByID(ctx, vs.UserID)
		if err != nil {
			logger.WarnCF("discord", "Skipping unresolvable voice member", map[string]any{
				"user_id": vs.UserID,
				"error":   err.Error(),
			})
			continue
		}
		members = append(members, u)
	}
	return members, nil
}

func toMessage(m *discordgo.Message) Message {
	msg := Message{
		ID:      m.ID,
		ChatID:  m.ChannelID,
		Content: m.Content,
	}
	if m.Author != nil {
		msg.AuthorID = m.Author.ID
		msg.AuthorName = m.Author.Username
	}
	for _, r := range m.Reactions {
		if r.Emoji == nil {
			continue
		}
		msg.Reactions = append(msg.Reactions, ReactionCount{Emoji: r.Emoji.Name, Count: r.Count})
	}
	return msg
}

func wrapNotFound(err error) error {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil && restErr.Response.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrNotFound, err.Error())
	}
	return err
}

// splitMessage breaks long content into chunks that fit the transport's
// message limit, preferring newline then space boundaries near the cut.
func splitMessage(content string, limit int) []string {
	var messages []string

	for len(content) > 0 {
		if len(content) <= limit {
			messages = append(messages, content)
			break
		}

		msgEnd := findLastNewline(content[:limit], 200)
		if msgEnd <= 0 {
			msgEnd = findLastSpace(content[:limit], 100)
		}
		if msgEnd <= 0 {
			msgEnd = limit
		}

		messages = append(messages, content[:msgEnd])
		content = strings.TrimSpace(content[msgEnd:])
	}
	return messages
}

func findLastNewline(s string, searchWindow int) int {
	searchStart := len(s) - searchWindow
	if searchStart < 0 {
		searchStart = 0
	}
	for i := len(s) - 1; i >= searchStart; i-- {
		if s[i] == '\n' {
			return i
		}
	}
	return -1
}

func findLastSpace(s string, searchWindow int) int {
	searchStart := len(s) - searchWindow
	if searchStart < 0 {
		searchStart = 0
	}
	for i := len(s) - 1; i >= searchStart; i-- {
		if s[i] == ' ' || s[i] == '\t' {
			return i
		}
	}
	return -1
}
