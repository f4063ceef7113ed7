// Package i18n holds the bot's user-facing strings in English, Russian and
// Belarusian and picks one for a Telegram language code.
package i18n

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Key names a localized string.
type Key string

// Message keys.
const (
	Top40            Key = "top40"
	History          Key = "history"
	PlaySolo         Key = "playSolo"
	PlayWithFriends  Key = "playWithFriends"
	VisitSite        Key = "visitGS"
	TopHeader        Key = "top40Header"
	NoResults        Key = "noRes"
	HistoryFor       Key = "histFor"
	HistoryHeader    Key = "histHeader"
	StartDescription Key = "startCommand"
)

// DefaultLang is used when the user's language is unknown.
const DefaultLang = "en"

var belarusian = language.MustParse("be")

// Supported lists the translated languages, default first.
var Supported = []language.Tag{language.English, language.Russian, belarusian}

var messages = map[Key][3]string{ // en, ru, be
	Top40:            {"Top 40", "Лучшие 40", "Найлепшыя 40"},
	History:          {"History", "История", "Гісторыя"},
	PlaySolo:         {"Play solo", "Играть одному", "Іграць аднаму"},
	PlayWithFriends:  {"Play with friends", "Играть с друзьями", "Іграць з сябрамі"},
	VisitSite:        {"Visit gsbelarus.com", "Посетить gsbelarus.com", "Наведаць gsbelarus.com"},
	TopHeader:        {"#  Player              Score", "#  Игрок               Рез-т", "#  Ігрок               Вынік"},
	NoResults:        {"No results yet!", "Нет результатов!", "Няма вынікаў!"},
	HistoryFor:       {"History of play for ", "История игр ", "Гісторыя гульняў "},
	HistoryHeader:    {"Date       Score  Lvl Time", "Дата       Рез-т  Ур  Врем", "Дата       Вынік  Узр Час "},
	StartDescription: {"Start the game", "Начать игру", "Пачаць гульню"},
}

// Catalog resolves keys to localized strings.
type Catalog struct {
	matcher  language.Matcher
	printers []*message.Printer // parallel to Supported
}

// New builds a Catalog with every supported translation registered.
func New() (*Catalog, error) {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for key, texts := range messages {
		for i, tag := range Supported {
			if err := b.SetString(tag, string(key), texts[i]); err != nil {
				return nil, fmt.Errorf("register %s/%s: %w", tag, key, err)
			}
		}
	}

	c := &Catalog{
		matcher:  language.NewMatcher(Supported),
		printers: make([]*message.Printer, len(Supported)),
	}
	for i, tag := range Supported {
		c.printers[i] = message.NewPrinter(tag, message.Catalog(b))
	}
	return c, nil
}

// MustNew is New for package-level initialization.
func MustNew() *Catalog {
	c, err := New()
	if err != nil {
		panic(err)
	}
	return c
}

// Match returns the supported language closest to a Telegram language code
// such as "ru", "be-BY" or "en-US". Unknown codes fall back to English.
func (c *Catalog) Match(code string) language.Tag {
	return Supported[c.index(code)]
}

func (c *Catalog) index(code string) int {
	tag, err := language.Parse(strings.TrimSpace(code))
	if err != nil {
		return 0
	}
	_, idx, conf := c.matcher.Match(tag)
	if conf == language.No {
		return 0
	}
	return idx
}

// Text returns key in the language best matching code.
func (c *Catalog) Text(code string, key Key) string {
	return c.printers[c.index(code)].Sprintf(string(key))
}

// LangFromCode returns the lower-case two-letter prefix of a Telegram
// language code, or DefaultLang when there is none.
func LangFromCode(code string) string {
	code = strings.TrimSpace(code)
	if len(code) < 2 {
		return DefaultLang
	}
	return strings.ToLower(code[:2])
}
