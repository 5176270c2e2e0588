package bus

// InboundMessage is one chat message on its way into the bot loop.
// CleanContent has user/role mentions replaced by display names and is
// what gets handed to the NLU.
type InboundMessage struct {
	Channel      string // transport name, e.g. "discord"
	MessageID    string
	ChatID       string
	ChatName     string
	GuildID      string
	SenderID     string
	SenderName   string
	Content      string
	CleanContent string
	IsDM         bool
	MentionsBot  bool
	UserMentions []string // mentioned user ids
	RoleMentions []string // mentioned role ids
}

// ReactionEvent is an emoji reaction added to a message.
type ReactionEvent struct {
	Channel   string
	GuildID   string
	ChatID    string
	MessageID string
	UserID    string
	Emoji     string
}
