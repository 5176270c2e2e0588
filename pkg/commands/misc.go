package commands

import (
	"context"
	"fmt"
	"math/rand"
	"regexp"
	"strconv"
	"strings"

	"github.com/parleybot/parley/pkg/bot"
	"github.com/parleybot/parley/pkg/bus"
)

func helpCommand(s *Set) bot.Command {
	return bot.Command{
		Name: "hilfe",
		Help: "zeigt diese Übersicht",
		Fn: func(ctx context.Context, b *bot.Bot, msg bus.InboundMessage, args string) error {
			var sb strings.Builder
			sb.WriteString("Das kann ich:\n```\n")
			for _, cmd := range s.UserCommands() {
				fmt.Fprintf(&sb, "%s%-12s %s\n", bot.UserSymbol, cmd.Name, cmd.Help)
			}
			sb.WriteString("```\nAnsonsten sprich einfach mit mir.")
			b.ReplyNoMention(ctx, msg, sb.String())
			return nil
		},
	}
}

// diceSpec accepts both the English "2d6" and the German "2w6".
var diceSpec = regexp.MustCompile(`^(\d*)[dw](\d+)$`)

func rollCommand() bot.Command {
	return bot.Command{
		Name: "würfel",
		Help: "würfelt, z.B. /würfel 2w6",
		Fn: func(ctx context.Context, b *bot.Bot, msg bus.InboundMessage, args string) error {
			spec := strings.TrimSpace(args)
			if spec == "" {
				spec = "1w6"
			}

			m := diceSpec.FindStringSubmatch(strings.ToLower(spec))
			if m == nil {
				b.Reply(ctx, msg, "Das verstehe ich nicht. Versuch es wie bei /würfel 2w6.")
				return nil
			}

			count := 1
			if m[1] != "" {
				count, _ = strconv.Atoi(m[1])
			}
			sides, _ := strconv.Atoi(m[2])
			if count < 1 || count > 20 || sides < 2 || sides > 1000 {
				b.Reply(ctx, msg, "So viele Würfel habe ich nicht dabei.")
				return nil
			}

			sum := 0
			rolls := make([]string, count)
			for i := range rolls {
				v := rand.Intn(sides) + 1
				sum += v
				rolls[i] = strconv.Itoa(v)
			}

			if count == 1 {
				b.Reply(ctx, msg, "Gewürfelt: "+rolls[0])
				return nil
			}
			b.Reply(ctx, msg, fmt.Sprintf("Gewürfelt: %s (Summe %d)", strings.Join(rolls, ", "), sum))
			return nil
		},
	}
}

func teamsCommand() bot.Command {
	return bot.Command{
		Name: "teams",
		Help: "teilt deinen Sprachkanal in Teams, z.B. /teams 2",
		Fn: func(ctx context.Context, b *bot.Bot, msg bus.InboundMessage, args string) error {
			if msg.GuildID == "" {
				b.Reply(ctx, msg, "Das geht nur auf einem Server.")
				return nil
			}

			teamCount := 2
			if n, err := strconv.Atoi(strings.TrimSpace(args)); err == nil && n >= 2 {
				teamCount = n
			}

			m, err := b.Messenger(msg.Channel)
			if err != nil {
				return err
			}
			members, err := m.VoiceMembers(ctx, msg.GuildID, msg.SenderID)
			if err != nil {
				return err
			}
			if len(members) < teamCount {
				b.Reply(ctx, msg, "Dafür sind zu wenige Leute in deinem Sprachkanal.")
				return nil
			}

			rand.Shuffle(len(members), func(i, j int) {
				members[i], members[j] = members[j], members[i]
			})

			var sb strings.Builder
			for i := 0; i < teamCount; i++ {
				fmt.Fprintf(&sb, "Team %d:", i+1)
				for j := i; j < len(members); j += teamCount {
					sb.WriteString(" " + members[j].Name)
				}
				sb.WriteString("\n")
			}
			b.ReplyNoMention(ctx, msg, sb.String())
			return nil
		},
	}
}
