package channels

import (
	"context"
	"errors"
)

// ErrNotFound is returned for messages, users or roles that the transport
// no longer knows, typically because someone deleted them first.
var ErrNotFound = errors.New("not found")

// ErrUnsupported marks operations a transport cannot offer, like guild roles
// on the console.
var ErrUnsupported = errors.New("operation not supported by this transport")

// Message is a transport-neutral view of a posted chat message.
type Message struct {
	ID         string
	ChatID     string
	AuthorID   string
	AuthorName string
	Content    string
	Reactions  []ReactionCount
}

type ReactionCount struct {
	Emoji string
	Count int
}

type User struct {
	ID   string
	Name string
}

type Role struct {
	ID   string
	Name string
}

// Messenger is the outbound side of a chat transport. Send operations
// return the IDs of the created messages so replies can be deleted later.
type Messenger interface {
	Self(ctx context.Context) (User, error)
	Send(ctx context.Context, chatID, content string) ([]string, error)
	SendDM(ctx context.Context, userID, content string) ([]string, error)
	Edit(ctx context.Context, chatID, messageID, content string) error
	Delete(ctx context.Context, chatID, messageID string) error
	Message(ctx context.Context, chatID, messageID string) (Message, error)
	History(ctx context.Context, chatID string, limit int, beforeID string) ([]Message, error)
	UserByID(ctx context.Context, userID string) (User, error)
	React(ctx context.Context, chatID, messageID, emoji string) error
	Unreact(ctx context.Context, chatID, messageID, emoji, userID string) error
	GuildRoles(ctx context.Context, guildID string) ([]Role, error)
	MemberRoles(ctx context.Context, guildID, userID string) ([]string, error)
	AddMemberRole(ctx context.Context, guildID, userID, roleID string) error
	RemoveMemberRole(ctx context.Context, guildID, userID, roleID string) error
	VoiceMembers(ctx context.Context, guildID, userID string) ([]User, error)
}
