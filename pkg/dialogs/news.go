package dialogs

import (
	"context"
	"fmt"
	"strings"

	"github.com/parleybot/parley/pkg/bot"
	"github.com/parleybot/parley/pkg/dialog"
)

// Providers maps news categories onto their RSS feeds. The entity model
// resolves spoken category names ("Nachrichten", "Sport") to these keys.
var Providers = map[string]NewsProvider{
	"allgemein": {Label: "Tagesschau", URL: "https://www.tagesschau.de/xml/rss2/"},
	"sport":     {Label: "Sport1", URL: "https://www.sport1.de/news.rss"},
	"it":        {Label: "heise online", URL: "https://www.heise.de/rss/heise-atom.xml"},
	"netcup":    {Label: "netcup", URL: "https://www.netcup-news.de/feed/"},
}

type NewsProvider struct {
	Label string
	URL   string
}

const defaultProvider = "allgemein"

// News reads the day's headlines for the requested category.
type News struct {
	*dialog.Machine
	bot *bot.Bot
}

func NewNews(b *bot.Bot) *News {
	d := &News{
		Machine: dialog.NewMachine(IDNews, "respond"),
		bot:     b,
	}
	d.Handle("respond", d.respond)
	return d
}

func (d *News) respond(ctx context.Context, t *dialog.Turn) (dialog.Directive, error) {
	key := defaultProvider
	if cats := t.EntitiesInGroup("news"); len(cats) > 0 {
		key = strings.ToLower(cats[0].Name)
	}

	provider, ok := Providers[key]
	if !ok {
		d.bot.Reply(ctx, t.Msg, "Diese Nachrichtenquelle kenne ich nicht.")
		return dialog.Finish(), nil
	}

	items, err := d.bot.Feeds().Latest(ctx, provider.URL)
	if err != nil {
		return dialog.Directive{}, err
	}
	if len(items) == 0 {
		d.bot.Reply(ctx, t.Msg, "Von "+provider.Label+" gibt es heute nichts Neues.")
		return dialog.Finish(), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Das Neueste von %s:\n", provider.Label)
	for _, it := range items {
		fmt.Fprintf(&sb, "• %s\n<%s>\n", it.Title, it.Link)
	}
	d.bot.ReplyNoMention(ctx, t.Msg, sb.String())
	return dialog.Finish(), nil
}
