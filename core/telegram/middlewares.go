package telegram

import (
	"time"

	coreconfig "github.com/m3rciful/lexibot/core/config"
	"github.com/m3rciful/lexibot/core/keyed"
	"github.com/m3rciful/lexibot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// DefaultMiddlewares builds the shared middleware chain for bots.
// When seq is set, everything after rate limiting runs on the sender's worker.
func DefaultMiddlewares(cfg *coreconfig.Config, onLimited tele.HandlerFunc, seq *keyed.Sequencer[int64]) []Middleware {
	mws := []Middleware{
		{Name: "recover", Use: middleware.RecoverMiddleware},
	}

	if cfg != nil {
		interval := time.Duration(cfg.RateLimit.IntervalMS) * time.Millisecond
		if interval > 0 {
			ex := make(map[string]struct{}, len(cfg.RateLimit.ExcludeUpdates))
			for _, t := range cfg.RateLimit.ExcludeUpdates {
				ex[t] = struct{}{}
			}
			mws = append(mws, Middleware{
				Name: "rate_limit",
				Use: middleware.RateLimitMiddleware(middleware.RateLimitOptions{
					Interval:  interval,
					Exclude:   ex,
					OnLimited: onLimited,
				}),
			})
		}
	}

	if seq != nil {
		mws = append(mws, Middleware{Name: "sequence", Use: middleware.SequenceMiddleware(seq)})
	}

	return append(mws,
		Middleware{Name: "logger", Use: middleware.LoggerMiddleware},
		Middleware{Name: "metrics", Use: middleware.MessageMetricsMiddleware},
	)
}
