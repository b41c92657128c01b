package bot

type EventKind int

const (
	EventCommand EventKind = iota
	EventButton
	EventText
)

func (kind EventKind) String() string {
	switch kind {
	case EventCommand:
		return "command"
	case EventButton:
		return "button"
	case EventText:
		return "text"
	default:
		return "unknown"
	}
}

// Event is one inbound chat interaction. Payload is the command, the button
// id or the message text depending on Kind.
type Event struct {
	UserID     int64
	ChatID     int64
	Kind       EventKind
	Payload    string
	CallbackID string
	Language   string
}

func (event Event) SessionKey() SessionKey {
	return SessionKey{UserID: event.UserID, ChatID: event.ChatID}
}

type Button struct {
	Text string
	Data string
}

// Reply is one outbound instruction. Alert replies answer the triggering
// button press as a popup instead of a chat message.
type Reply struct {
	Text     string
	Buttons  [][]Button
	MainMenu bool
	Alert    bool
}
