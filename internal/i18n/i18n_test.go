package i18n_test

import (
	"testing"

	"github.com/gsbelarus/tetrisbot/internal/i18n"
	. "github.com/smartystreets/goconvey/convey"
	"golang.org/x/text/language"
)

func TestCatalog(t *testing.T) {
	Convey("Given the string catalog", t, func() {
		c, err := i18n.New()
		So(err, ShouldBeNil)

		Convey("Then English is the default", func() {
			So(c.Text("", i18n.NoResults), ShouldEqual, "No results yet!")
			So(c.Text("xx", i18n.NoResults), ShouldEqual, "No results yet!")
			So(c.Text("de", i18n.Top40), ShouldEqual, "Top 40")
			So(c.Match("not a tag!"), ShouldEqual, language.English)
		})

		Convey("Then Russian and Belarusian users get their language", func() {
			So(c.Text("ru", i18n.History), ShouldEqual, "История")
			So(c.Text("be", i18n.History), ShouldEqual, "Гісторыя")
			So(c.Text("ru-RU", i18n.NoResults), ShouldEqual, "Нет результатов!")
			So(c.Match("en-GB"), ShouldEqual, language.English)
		})

		Convey("Then table headers line up with the rendered columns", func() {
			for _, code := range []string{"en", "ru", "be"} {
				So([]rune(c.Text(code, i18n.TopHeader)), ShouldHaveLength, 28)
				So([]rune(c.Text(code, i18n.HistoryHeader)), ShouldHaveLength, 26)
			}
		})
	})
}

func TestLangFromCode(t *testing.T) {
	Convey("Language codes are cut to two lower-case letters", t, func() {
		So(i18n.LangFromCode("RU-ru"), ShouldEqual, "ru")
		So(i18n.LangFromCode("pt-br"), ShouldEqual, "pt")
		So(i18n.LangFromCode(""), ShouldEqual, "en")
		So(i18n.LangFromCode("x"), ShouldEqual, "en")
	})
}
