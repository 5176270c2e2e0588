package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/parleybot/parley/pkg/bot"
	"github.com/parleybot/parley/pkg/bus"
)

func echoCommand() bot.Command {
	return bot.Command{
		Name: "echo",
		Help: "wiederholt den Text",
		Fn: func(ctx context.Context, b *bot.Bot, msg bus.InboundMessage, args string) error {
			if strings.TrimSpace(args) == "" {
				return nil
			}
			b.ReplyNoMention(ctx, msg, args)
			return nil
		},
	}
}

func stateCommand() bot.Command {
	return bot.Command{
		Name: "status",
		Help: "zeigt die aktuelle Konfiguration",
		Fn: func(ctx context.Context, b *bot.Bot, msg bus.InboundMessage, args string) error {
			cfg := b.Config()
			var sb strings.Builder
			sb.WriteString("```\n")
			fmt.Fprintf(&sb, "debug:          %t\n", cfg.IsDebug())
			fmt.Fprintf(&sb, "respond_all:    %t\n", cfg.IsRespondAll())
			fmt.Fprintf(&sb, "keep_messages:  %t\n", cfg.IsKeepMessages())
			fmt.Fprintf(&sb, "ttl_seconds:    %.0f\n", cfg.TTL())
			fmt.Fprintf(&sb, "channels:       %d\n", len(cfg.GetChannels()))
			fmt.Fprintf(&sb, "admins:         %d\n", len(cfg.GetAdmins()))
			fmt.Fprintf(&sb, "queued_tasks:   %d\n", b.Scheduler().Len())
			sb.WriteString("```")
			b.ReplyNoMention(ctx, msg, sb.String())
			return nil
		},
	}
}

func listenCommand() bot.Command {
	return bot.Command{
		Name: "aktivieren",
		Help: "aktiviert den aktuellen Kanal",
		Fn: func(ctx context.Context, b *bot.Bot, msg bus.InboundMessage, args string) error {
			if msg.IsDM {
				b.Reply(ctx, msg, "Direktnachrichten sind immer aktiv.")
				return nil
			}
			if b.Config().IsChannel(msg.ChatID) {
				b.Reply(ctx, msg, "Hier höre ich schon zu.")
				return nil
			}
			b.Config().AddChannel(msg.ChatID)
			b.Reply(ctx, msg, "Alles klar, ich höre jetzt hier zu.")
			return nil
		},
	}
}

func keepCommand() bot.Command {
	return bot.Command{
		Name: "behalten",
		Help: "schaltet das automatische Aufräumen um",
		Fn: func(ctx context.Context, b *bot.Bot, msg bus.InboundMessage, args string) error {
			if b.Config().ToggleKeepMessages() {
				b.Reply(ctx, msg, "Nachrichten bleiben jetzt stehen.")
			} else {
				b.Reply(ctx, msg, "Nachrichten werden jetzt wieder aufgeräumt.")
			}
			return nil
		},
	}
}

func respondAllCommand() bot.Command {
	return bot.Command{
		Name: "plaudern",
		Help: "antwortet in aktiven Kanälen auch ohne Erwähnung",
		Fn: func(ctx context.Context, b *bot.Bot, msg bus.InboundMessage, args string) error {
			if b.Config().ToggleRespondAll() {
				b.Reply(ctx, msg, "Ich antworte jetzt auf alles in aktiven Kanälen.")
			} else {
				b.Reply(ctx, msg, "Ich antworte nur noch, wenn man mich anspricht.")
			}
			return nil
		},
	}
}

func adminCommand() bot.Command {
	return bot.Command{
		Name: "admin",
		Help: "macht die erwähnten Nutzer zu Admins",
		Fn: func(ctx context.Context, b *bot.Bot, msg bus.InboundMessage, args string) error {
			if len(msg.UserMentions) == 0 {
				b.Reply(ctx, msg, "Wen denn? Erwähne die neuen Admins in der Nachricht.")
				return nil
			}
			b.Config().AddAdmins(msg.UserMentions)
			b.Reply(ctx, msg, fmt.Sprintf("Gemerkt, %d neue Admins.", len(msg.UserMentions)))
			return nil
		},
	}
}

func debugCommand() bot.Command {
	return bot.Command{
		Name: "debug",
		Help: "schaltet die Intent-Anzeige um",
		Fn: func(ctx context.Context, b *bot.Bot, msg bus.InboundMessage, args string) error {
			if b.Config().ToggleDebug() {
				b.Reply(ctx, msg, "Debug-Modus ist jetzt an.")
			} else {
				b.Reply(ctx, msg, "Debug-Modus ist jetzt aus.")
			}
			return nil
		},
	}
}

func shutdownCommand() bot.Command {
	return bot.Command{
		Name: "shutdown",
		Help: "beendet den Bot",
		Fn: func(ctx context.Context, b *bot.Bot, msg bus.InboundMessage, args string) error {
			b.Reply(ctx, msg, "Bis bald!")
			b.RequestShutdown()
			return nil
		},
	}
}
