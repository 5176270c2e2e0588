// Package commands implements the symbol-prefixed chat commands: "/" for
// everyone, "\" for admins. State-carrying commands (reminders, summons,
// role boards) persist their records and restore them on startup.
package commands

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/parleybot/parley/pkg/bot"
)

// Set bundles the command registries and their durable state.
type Set struct {
	reminders *reminderBook
	summons   *summonBoard
	roles     *roleBoards
}

// New loads the command state files from stateDir.
func New(stateDir string) (*Set, error) {
	reminders, err := loadReminderBook(filepath.Join(stateDir, "reminder_state.json"))
	if err != nil {
		return nil, fmt.Errorf("load reminder state: %w", err)
	}
	summons, err := loadSummonBoard(filepath.Join(stateDir, "summon_state.json"))
	if err != nil {
		return nil, fmt.Errorf("load summon state: %w", err)
	}
	roles, err := loadRoleBoards(filepath.Join(stateDir, "roles_state.json"))
	if err != nil {
		return nil, fmt.Errorf("load roles state: %w", err)
	}

	return &Set{reminders: reminders, summons: summons, roles: roles}, nil
}

// Install registers the command registries and reaction handlers on the bot
// and re-queues every pending reminder and summon.
func (s *Set) Install(ctx context.Context, b *bot.Bot) error {
	b.SetUserCommands(s.UserCommands())
	b.SetSystemCommands(s.SystemCommands())
	b.OnReaction(s.summons.handleReaction)
	b.OnReaction(s.roles.handleReaction)

	s.reminders.restore(b)
	if err := s.summons.restore(b); err != nil {
		return err
	}
	return nil
}

func (s *Set) UserCommands() []bot.Command {
	return []bot.Command{
		helpCommand(s),
		rollCommand(),
		teamsCommand(),
		s.reminders.command(),
		s.summons.command(s.reminders),
	}
}

func (s *Set) SystemCommands() []bot.Command {
	return append([]bot.Command{
		echoCommand(),
		stateCommand(),
		listenCommand(),
		keepCommand(),
		respondAllCommand(),
		adminCommand(),
		debugCommand(),
		shutdownCommand(),
	}, s.roles.commands()...)
}
