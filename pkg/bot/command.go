package bot

import (
	"context"
	"sort"
	"strings"

	"github.com/parleybot/parley/pkg/bus"
	"github.com/parleybot/parley/pkg/logger"
)

// Command symbols. System commands manage the bot itself and require admin
// rights; user commands are open to everyone.
const (
	SystemSymbol = `\`
	UserSymbol   = "/"
)

// CommandFunc executes one command invocation. args is the raw text after
// the command name.
type CommandFunc func(ctx context.Context, b *Bot, msg bus.InboundMessage, args string) error

type Command struct {
	Name      string
	Help      string
	AdminOnly bool
	DMOnly    bool
	Fn        CommandFunc
}

// SetUserCommands installs the user command registry. Commands are matched
// longest name first so "rolle" never shadows "rollen".
func (b *Bot) SetUserCommands(cmds []Command) {
	b.userCmds = sortByNameLength(cmds)
}

func (b *Bot) SetSystemCommands(cmds []Command) {
	b.sysCmds = sortByNameLength(cmds)
}

func (b *Bot) UserCommands() []Command   { return b.userCmds }
func (b *Bot) SystemCommands() []Command { return b.sysCmds }

func sortByNameLength(cmds []Command) []Command {
	sorted := make([]Command, len(cmds))
	copy(sorted, cmds)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].Name) > len(sorted[j].Name)
	})
	return sorted
}

func (b *Bot) dispatchCommand(ctx context.Context, msg bus.InboundMessage, body string, cmds []Command, system bool) {
	body = strings.TrimSpace(body)

	for _, cmd := range cmds {
		if !matchesCommand(body, cmd.Name) {
			continue
		}

		if (system || cmd.AdminOnly) && !b.cfg.IsAdmin(msg.SenderID) {
			b.Reply(ctx, msg, "Dazu fehlen dir die Rechte.")
			return
		}
		if cmd.DMOnly && !msg.IsDM {
			b.Reply(ctx, msg, "Das geht nur per Direktnachricht.")
			return
		}

		args := strings.TrimSpace(body[len(cmd.Name):])
		if err := cmd.Fn(ctx, b, msg, args); err != nil {
			logger.ErrorCF("bot", "Command failed", map[string]any{
				"command": cmd.Name,
				"user":    msg.SenderID,
				"error":   err.Error(),
			})
			b.Reply(ctx, msg, "Da ist etwas schiefgelaufen.")
		}
		return
	}

	b.Reply(ctx, msg, "Unbekannter Befehl")
}

// matchesCommand requires the name to be followed by a word boundary, so
// "roll" does not swallow "rollen".
func matchesCommand(body, name string) bool {
	lower := strings.ToLower(body)
	name = strings.ToLower(name)
	if !strings.HasPrefix(lower, name) {
		return false
	}
	return len(body) == len(name) || body[len(name)] == ' '
}
