package channels

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/google/uuid"
	"github.com/parleybot/parley/pkg/bus"
)

// ConsoleChannel is a local REPL transport for trying dialogs without a
// Discord connection. Every input line arrives as a direct message; replies
// print to stdout.
type ConsoleChannel struct {
	*BaseChannel
	out    io.Writer
	cancel context.CancelFunc
}

const (
	consoleChatID = "console"
	consoleUserID = "console-user"
)

func NewConsoleChannel(bus *bus.MessageBus) *ConsoleChannel {
	return &ConsoleChannel{
		BaseChannel: NewBaseChannel("console", bus, nil),
		out:         os.Stdout,
	}
}

func (c *ConsoleChannel) Start(ctx context.Context) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "> ",
		HistoryFile:     filepath.Join(os.TempDir(), ".parley_history"),
		HistoryLimit:    100,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize readline: %w", err)
	}

	loopCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.setRunning(true)

	go func() {
		defer rl.Close()
		for {
			line, err := rl.Readline()
			if err != nil {
				if err == readline.ErrInterrupt || err == io.EOF {
					c.setRunning(false)
					return
				}
				continue
			}
			if loopCtx.Err() != nil {
				return
			}

			input := strings.TrimSpace(line)
			if input == "" {
				continue
			}

			c.bus.PublishInbound(bus.InboundMessage{
				Channel:      c.Name(),
				MessageID:    uuid.NewString(),
				ChatID:       consoleChatID,
				ChatName:     "console",
				SenderID:     consoleUserID,
				SenderName:   "console",
				Content:      input,
				CleanContent: input,
				IsDM:         true,
			})
		}
	}()
	return nil
}

func (c *ConsoleChannel) Stop(ctx context.Context) error {
	c.setRunning(false)
	if c.cancel != nil {
		c.cancel()
	}
	return nil
}

func (c *ConsoleChannel) Self(ctx context.Context) (User, error) {
	return User{ID: "parley", Name: "parley"}, nil
}

func (c *ConsoleChannel) Send(ctx context.Context, chatID, content string) ([]string, error) {
	fmt.Fprintf(c.out, "%s\n", content)
	return []string{uuid.NewString()}, nil
}

func (c *ConsoleChannel) SendDM(ctx context.Context, userID, content string) ([]string, error) {
	return c.Send(ctx, consoleChatID, content)
}

func (c *ConsoleChannel) Edit(ctx context.Context, chatID, messageID, content string) error {
	fmt.Fprintf(c.out, "%s\n", content)
	return nil
}

func (c *ConsoleChannel) Delete(ctx context.Context, chatID, messageID string) error {
	return nil
}

func (c *ConsoleChannel) Message(ctx context.Context, chatID, messageID string) (Message, error) {
	return Message{}, ErrNotFound
}

func (c *ConsoleChannel) History(ctx context.Context, chatID string, limit int, beforeID string) ([]Message, error) {
	return nil, nil
}

func (c *ConsoleChannel) UserByID(ctx context.Context, userID string) (User, error) {
	if userID == consoleUserID {
		return User{ID: consoleUserID, Name: "console"}, nil
	}
	return User{}, ErrNotFound
}

func (c *ConsoleChannel) React(ctx context.Context, chatID, messageID, emoji string) error {
	return nil
}

func (c *ConsoleChannel) Unreact(ctx context.Context, chatID, messageID, emoji, userID string) error {
	return nil
}

func (c *ConsoleChannel) GuildRoles(ctx context.Context, guildID string) ([]Role, error) {
	return nil, ErrUnsupported
}

func (c *ConsoleChannel) MemberRoles(ctx context.Context, guildID, userID string) ([]string, error) {
	return nil, ErrUnsupported
}

func (c *ConsoleChannel) AddMemberRole(ctx context.Context, guildID, userID, roleID string) error {
	return ErrUnsupported
}

func (c *ConsoleChannel) RemoveMemberRole(ctx context.Context, guildID, userID, roleID string) error {
	return ErrUnsupported
}

func (c *ConsoleChannel) VoiceMembers(ctx context.Context, guildID, userID string) ([]User, error) {
	return nil, ErrUnsupported
}
