package telegram

import (
	"github.com/gsbelarus/tetrisbot/internal/i18n"
	"github.com/gsbelarus/tetrisbot/pkg/logger"
)

// Option applies a configuration option to the Bot.
type Option func(*Bot)

// WithGameShortName sets the game registered with @BotFather.
func WithGameShortName(name string) Option {
	return func(b *Bot) {
		if name != "" {
			b.gameShortName = name
		}
	}
}

// WithTopSize sets how many players the leaderboard reply lists.
func WithTopSize(n int) Option {
	return func(b *Bot) {
		if n > 0 {
			b.topSize = n
		}
	}
}

// WithLinks sets the "play with friends" and site button targets.
func WithLinks(friendsURL, siteURL string) Option {
	return func(b *Bot) {
		if friendsURL != "" {
			b.friendsURL = friendsURL
		}
		if siteURL != "" {
			b.siteURL = siteURL
		}
	}
}

// WithCatalog sets the localized strings.
func WithCatalog(c *i18n.Catalog) Option {
	return func(b *Bot) {
		if c != nil {
			b.texts = c
		}
	}
}

// WithLogger sets a custom logger for the bot.
func WithLogger(l logger.Logger) Option {
	return func(b *Bot) {
		if l != nil {
			b.logger = l
		}
	}
}
