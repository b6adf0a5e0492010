package callbacks

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// ParseCallbackData parses Telebot's \f<unique>|<payload> encoding.
// Returns unique and payload (may be empty).
func ParseCallbackData(cb *tele.Callback) (string, string) {
	if cb == nil {
		return "", ""
	}
	if cb.Unique != "" {
		return cb.Unique, cb.Data
	}
	raw := strings.TrimPrefix(cb.Data, "\f")
	unique, payload, _ := strings.Cut(raw, "|")
	return strings.TrimSpace(unique), payload
}

// JoinAction builds an action identifier from a key and payload, the
// inverse of SplitAction.
func JoinAction(key, payload string) string {
	if payload == "" {
		return key
	}
	return key + "." + payload
}

// SplitAction splits an action identifier such as "browse.next" into the
// callback unique key and its payload.
func SplitAction(action string) (string, string) {
	key, payload, _ := strings.Cut(action, ".")
	return key, payload
}

// Action reconstructs the action identifier carried by the callback.
func Action(c tele.Context) string {
	return JoinAction(ParseCallbackData(c.Callback()))
}
