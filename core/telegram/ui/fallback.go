package ui

import (
	"github.com/m3rciful/lexibot/core/telegram/router"

	tele "gopkg.in/telebot.v4"
)

// FallbackProvider exposes handlers used when incoming updates
// cannot be mapped to commands, callbacks, or expected documents.
type FallbackProvider interface {
	UnknownText() tele.HandlerFunc
	UnknownDocument() tele.HandlerFunc
	UnknownCallback() tele.HandlerFunc
}

// RouteOptions maps a provider onto router options. A nil provider yields zero options.
func RouteOptions(fp FallbackProvider) (router.TextOptions, router.CallbackOptions) {
	if fp == nil {
		return router.TextOptions{}, router.CallbackOptions{}
	}
	return router.TextOptions{
			UnknownText:     fp.UnknownText(),
			UnknownDocument: fp.UnknownDocument(),
		}, router.CallbackOptions{
			NotFound: fp.UnknownCallback(),
		}
}
