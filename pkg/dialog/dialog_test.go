package dialog

import (
	"testing"

	"github.com/parleybot/parley/pkg/bus"
	"github.com/parleybot/parley/pkg/nlu"
)

func TestEnhance_GuildMessageUsesMentions(t *testing.T) {
	msg := bus.InboundMessage{SenderID: "42", ChatID: "99"}
	got := Enhance("Hallo #USER, willkommen in #CHANNEL", msg)
	want := "Hallo <@42>, willkommen in <#99>"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestEnhance_DirectMessageUsesPlainNames(t *testing.T) {
	msg := bus.InboundMessage{SenderID: "42", SenderName: "alice", ChatName: "dm", IsDM: true}
	got := Enhance("Hallo #USER", msg)
	if got != "Hallo @alice" {
		t.Fatalf("got %q", got)
	}
}

func TestTurn_EntitiesInGroup(t *testing.T) {
	turn := &Turn{Entities: []nlu.Entity{
		{Name: "bonn", Group: "city"},
		{Name: "utc", Group: "timezone"},
		{Name: "berlin", Group: "city"},
	}}

	cities := turn.EntitiesInGroup("city")
	if len(cities) != 2 {
		t.Fatalf("expected 2 city entities, got %d", len(cities))
	}
	if len(turn.EntitiesInGroup("color")) != 0 {
		t.Fatal("expected no color entities")
	}
}
