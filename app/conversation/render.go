package conversation

// EventKind tells text messages apart from button presses.
type EventKind int

const (
	// KindText is a free-text message.
	KindText EventKind = iota
	// KindButton is an inline button press carrying an action id.
	KindButton
)

// Event is one inbound interaction of a user.
type Event struct {
	UserID  int64
	Kind    EventKind
	Payload string
}

// Mode selects how a render reaches the user.
type Mode int

const (
	// NewMessage sends a fresh message.
	NewMessage Mode = iota
	// EditExisting replaces the message that carried the pressed button.
	EditExisting
	// Notice is a short informational toast without a keyboard.
	Notice
)

// Button is an inline button. Action is the id delivered back on press.
type Button struct {
	Label  string
	Action string
}

// Render is an instruction for the transport.
type Render struct {
	Text    string
	Buttons [][]Button
	Mode    Mode
}

func message(text string, rows ...[]Button) Render {
	return Render{Text: text, Buttons: rows, Mode: NewMessage}
}

func edit(text string, rows ...[]Button) Render {
	return Render{Text: text, Buttons: rows, Mode: EditExisting}
}

func notice(text string) Render {
	return Render{Text: text, Mode: Notice}
}

// respond picks EditExisting for button presses and NewMessage for text.
func respond(ev Event, text string, rows ...[]Button) Render {
	if ev.Kind == KindButton {
		return edit(text, rows...)
	}
	return message(text, rows...)
}
