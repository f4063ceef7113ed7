package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/gsbelarus/tetrisbot/internal/i18n"
)

// keyboard builds the inline keyboard attached to the game message. Telegram
// requires the game button to be the first button of the first row.
func (b *Bot) keyboard(lang string) tgbotapi.InlineKeyboardMarkup {
	play := tgbotapi.InlineKeyboardButton{
		Text:         "🎮 " + b.texts.Text(lang, i18n.PlaySolo),
		CallbackGame: &tgbotapi.CallbackGame{},
	}

	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			play,
			tgbotapi.NewInlineKeyboardButtonURL("🏅 "+b.texts.Text(lang, i18n.PlayWithFriends), b.friendsURL),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🏆 "+b.texts.Text(lang, i18n.Top40), DataTop40),
			tgbotapi.NewInlineKeyboardButtonData("📃 "+b.texts.Text(lang, i18n.History), DataHistory),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL(b.texts.Text(lang, i18n.VisitSite), b.siteURL),
		),
	)
}
