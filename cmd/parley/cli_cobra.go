package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/parleybot/parley/pkg/bot"
	"github.com/parleybot/parley/pkg/bus"
	"github.com/parleybot/parley/pkg/channels"
	"github.com/parleybot/parley/pkg/commands"
	"github.com/parleybot/parley/pkg/config"
	"github.com/parleybot/parley/pkg/dialogs"
	"github.com/parleybot/parley/pkg/feed"
	"github.com/parleybot/parley/pkg/logger"
	"github.com/parleybot/parley/pkg/nlu"
	"github.com/parleybot/parley/pkg/qna"
	"github.com/parleybot/parley/pkg/scheduler"
	"github.com/parleybot/parley/pkg/transcript"
)

func executeCLI() error {
	return buildRootCommand().Execute()
}

func buildRootCommand() *cobra.Command {
	var showVersion bool

	root := &cobra.Command{
		Use:   "parley",
		Short: "Conversational Discord assistant with intent-driven dialogs",
		Long: strings.TrimSpace(`parley is a Discord bot that holds short task dialogs.

Utterances are classified by a RASA NLU server and routed into dialogs for
time, news, reminders, canned answers and more. Chat commands cover the
rest: dice, teams, summons and self-service roles.`),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				fmt.Println(formatVersion())
				return nil
			}
			_ = cmd.Help()
			return fmt.Errorf("a subcommand is required")
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.Flags().BoolVarP(&showVersion, "version", "v", false, "Show build/version metadata")

	root.AddCommand(newRunCommand())
	root.AddCommand(newConsoleCommand())
	root.AddCommand(newVersionCommand())
	return root
}

func newRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "run",
		Short:   "Connect to Discord and serve dialogs",
		Example: "  parley run",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBot(false)
		},
	}
}

func newConsoleCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "console",
		Short:   "Talk to the bot on a local REPL instead of Discord",
		Example: "  parley console",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBot(true)
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show build/version metadata",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println(formatVersion())
			return nil
		},
	}
}

func runBot(console bool) error {
	cfg, err := config.Load(config.Path())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger.Init(os.Stderr, cfg.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	ts, err := transcript.Open(cfg.NLU.TranscriptDB)
	if err != nil {
		return fmt.Errorf("open transcript store: %w", err)
	}
	defer ts.Close()

	recognizer := nlu.NewLazy(func() (nlu.Recognizer, error) {
		entities, err := nlu.LoadEntityModel(cfg.NLU.EntityFile)
		if err != nil {
			return nil, err
		}
		return nlu.NewClient(cfg.NLU.BaseURL, cfg.NLU.Threshold, entities, ts), nil
	})

	messageBus := bus.NewMessageBus()
	defer messageBus.Close()

	manager := channels.NewManager()
	if console {
		manager.Add(channels.NewConsoleChannel(messageBus))
	} else {
		if strings.TrimSpace(cfg.Discord.Token) == "" {
			return fmt.Errorf("discord.token is required (or set PARLEY_DISCORD_TOKEN)")
		}
		discord, err := channels.NewDiscordChannel(cfg.Discord, messageBus)
		if err != nil {
			return fmt.Errorf("initialize Discord channel: %w", err)
		}
		manager.Add(discord)
	}

	sched := scheduler.New()
	b := bot.New(cfg, messageBus, manager, sched, recognizer,
		qna.NewLibrary(cfg.QnADir), feed.NewFetcher(), ts)
	b.SetRegistryFactory(dialogs.Set)

	cmdSet, err := commands.New(cfg.StateDir)
	if err != nil {
		return fmt.Errorf("load command state: %w", err)
	}
	if err := cmdSet.Install(ctx, b); err != nil {
		return fmt.Errorf("install commands: %w", err)
	}
	if err := b.InitDeletions(filepath.Join(cfg.StateDir, "delete_state.json")); err != nil {
		return fmt.Errorf("load deletion state: %w", err)
	}

	if err := manager.StartAll(ctx); err != nil {
		return err
	}
	defer manager.StopAll(context.Background())

	sched.Start(ctx)
	defer sched.Stop()

	logger.InfoCF("main", "Parley is up", map[string]any{
		"version": formatVersion(),
		"console": console,
	})

	if err := b.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
