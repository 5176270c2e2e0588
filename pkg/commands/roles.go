package commands

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/parleybot/parley/pkg/bot"
	"github.com/parleybot/parley/pkg/bus"
	"github.com/parleybot/parley/pkg/store"
)

// roleBoards manages one self-service role message per guild. Members react
// with an emoji to get the mapped role and react again to drop it; the
// bot removes the reaction after applying, so the message stays clean.
type roleBoards struct {
	doc   *store.Document
	state rolesState
}

type rolesState struct {
	Version int                   `json:"version"`
	Boards  map[string]*roleBoard `json:"boards"`
}

type roleBoard struct {
	Transport string             `json:"transport"`
	ChatID    string             `json:"chat_id"`
	MessageID string             `json:"message_id"`
	Roles     map[string]roleRef `json:"roles"`
}

type roleRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func loadRoleBoards(path string) (*roleBoards, error) {
	rb := &roleBoards{
		doc:   store.New(path, 1, nil),
		state: rolesState{Version: 1, Boards: map[string]*roleBoard{}},
	}
	if err := rb.doc.Load(&rb.state); err != nil {
		return nil, err
	}
	if rb.state.Boards == nil {
		rb.state.Boards = map[string]*roleBoard{}
	}
	return rb, nil
}

func (rb *roleBoards) commands() []bot.Command {
	return []bot.Command{{
		Name: "rollen",
		Help: "verwaltet das Rollen-Brett: init, add <emoji> <rolle>, del <emoji>, reset",
		Fn:   rb.run,
	}}
}

func (rb *roleBoards) run(ctx context.Context, b *bot.Bot, msg bus.InboundMessage, args string) error {
	if msg.GuildID == "" {
		b.Reply(ctx, msg, "Rollen gibt es nur auf einem Server.")
		return nil
	}

	sub, rest, _ := strings.Cut(strings.TrimSpace(args), " ")
	switch sub {
	case "init":
		return rb.init(ctx, b, msg)
	case "add":
		return rb.add(ctx, b, msg, rest)
	case "del":
		return rb.del(ctx, b, msg, rest)
	case "reset":
		return rb.reset(ctx, b, msg)
	default:
		b.Reply(ctx, msg, "Ich kenne nur init, add, del und reset.")
		return nil
	}
}

func (rb *roleBoards) init(ctx context.Context, b *bot.Bot, msg bus.InboundMessage) error {
	board := rb.state.Boards[msg.GuildID]
	if board == nil {
		board = &roleBoard{Roles: map[string]roleRef{}}
		rb.state.Boards[msg.GuildID] = board
	}

	m, err := b.Messenger(msg.Channel)
	if err != nil {
		return err
	}
	ids, err := m.Send(ctx, msg.ChatID, boardText(board))
	if err != nil || len(ids) == 0 {
		return err
	}

	board.Transport = msg.Channel
	board.ChatID = msg.ChatID
	board.MessageID = ids[0]
	return rb.doc.Save(&rb.state)
}

func (rb *roleBoards) add(ctx context.Context, b *bot.Bot, msg bus.InboundMessage, args string) error {
	board := rb.state.Boards[msg.GuildID]
	if board == nil || board.MessageID == "" {
		b.Reply(ctx, msg, "Es gibt noch kein Rollen-Brett. Leg mit init los.")
		return nil
	}

	emoji, roleName, ok := strings.Cut(strings.TrimSpace(args), " ")
	roleName = strings.TrimSpace(roleName)
	if !ok || emoji == "" || roleName == "" {
		b.Reply(ctx, msg, "So geht das: add <emoji> <rolle>")
		return nil
	}

	m, err := b.Messenger(msg.Channel)
	if err != nil {
		return err
	}
	roles, err := m.GuildRoles(ctx, msg.GuildID)
	if err != nil {
		return err
	}

	var match *roleRef
	for _, r := range roles {
		if strings.EqualFold(r.Name, roleName) {
			match = &roleRef{ID: r.ID, Name: r.Name}
			break
		}
	}
	if match == nil {
		b.Reply(ctx, msg, "Die Rolle "+roleName+" gibt es hier nicht.")
		return nil
	}

	board.Roles[emoji] = *match
	if err := rb.doc.Save(&rb.state); err != nil {
		return err
	}
	if err := m.Edit(ctx, board.ChatID, board.MessageID, boardText(board)); err != nil {
		return err
	}
	return m.React(ctx, board.ChatID, board.MessageID, emoji)
}

func (rb *roleBoards) del(ctx context.Context, b *bot.Bot, msg bus.InboundMessage, args string) error {
	board := rb.state.Boards[msg.GuildID]
	emoji := strings.TrimSpace(args)
	if board == nil || emoji == "" {
		b.Reply(ctx, msg, "So geht das: del <emoji>")
		return nil
	}
	if _, ok := board.Roles[emoji]; !ok {
		b.Reply(ctx, msg, "Dieses Emoji ist nicht belegt.")
		return nil
	}

	delete(board.Roles, emoji)
	if err := rb.doc.Save(&rb.state); err != nil {
		return err
	}

	m, err := b.Messenger(msg.Channel)
	if err != nil {
		return err
	}
	return m.Edit(ctx, board.ChatID, board.MessageID, boardText(board))
}

func (rb *roleBoards) reset(ctx context.Context, b *bot.Bot, msg bus.InboundMessage) error {
	board := rb.state.Boards[msg.GuildID]
	if board == nil {
		return nil
	}
	delete(rb.state.Boards, msg.GuildID)
	if err := rb.doc.Save(&rb.state); err != nil {
		return err
	}

	if board.MessageID != "" {
		if err := b.DeleteMessage(ctx, board.Transport, board.ChatID, board.MessageID); err != nil {
			return err
		}
	}
	b.Reply(ctx, msg, "Das Rollen-Brett ist weg.")
	return nil
}

// handleReaction toggles the mapped role for the reacting member.
func (rb *roleBoards) handleReaction(ctx context.Context, b *bot.Bot, ev bus.ReactionEvent) (bool, error) {
	board := rb.state.Boards[ev.GuildID]
	if board == nil || board.MessageID != ev.MessageID {
		return false, nil
	}
	role, ok := board.Roles[ev.Emoji]
	if !ok {
		return true, nil
	}

	m, err := b.Messenger(ev.Channel)
	if err != nil {
		return true, err
	}
	defer m.Unreact(ctx, ev.ChatID, ev.MessageID, ev.Emoji, ev.UserID)

	current, err := m.MemberRoles(ctx, ev.GuildID, ev.UserID)
	if err != nil {
		return true, err
	}

	if slices.Contains(current, role.ID) {
		return true, m.RemoveMemberRole(ctx, ev.GuildID, ev.UserID, role.ID)
	}
	return true, m.AddMemberRole(ctx, ev.GuildID, ev.UserID, role.ID)
}

func boardText(board *roleBoard) string {
	var sb strings.Builder
	sb.WriteString("Reagiere, um dir eine Rolle zu holen (nochmal reagieren entfernt sie):\n")
	if len(board.Roles) == 0 {
		sb.WriteString("Noch keine Rollen eingerichtet.")
		return sb.String()
	}
	for _, emoji := range slices.Sorted(maps.Keys(board.Roles)) {
		fmt.Fprintf(&sb, "%s  %s\n", emoji, board.Roles[emoji].Name)
	}
	return sb.String()
}
