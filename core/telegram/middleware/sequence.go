package middleware

import (
	"log/slog"

	"github.com/m3rciful/lexibot/core/keyed"
	"github.com/m3rciful/lexibot/core/logger"
	tghelpers "github.com/m3rciful/lexibot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// SequenceMiddleware hands every update to the worker of its sender, so one
// user's updates run one after another in arrival order while different
// users proceed in parallel. Updates without a sender run inline.
func SequenceMiddleware(seq *keyed.Sequencer[int64]) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		if seq == nil {
			return next
		}
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil {
				return next(c)
			}
			run := RecoverMiddleware(next)
			err := seq.Submit(user.ID, func() {
				if err := run(c); err != nil {
					logger.LogEvent(tghelpers.BuildContext(c), logger.TG, slog.LevelError, "update.failed",
						slog.String("status", "fail"),
						slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
					)
				}
			})
			if err != nil {
				// Shutting down: nothing else will process this update.
				logger.LogEvent(tghelpers.BuildContext(c), logger.TG, slog.LevelWarn, "update.dropped",
					slog.String("status", "skip"),
					slog.String("err", err.Error()),
				)
			}
			return nil
		}
	}
}
