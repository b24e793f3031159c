// Package render turns a board into the two per-player views: a grid of
// labeled buttons and a PNG image. Both views enforce the same
// disclosure rule: spymasters see every card's true color, operatives
// only see the color of revealed cards, and a finished game hides
// nothing from anyone.
package render

import (
	"image/color"
	"strings"

	"github.com/mkarlsen/codenames/codenames"
)

// Default card colors, overridable per player through their settings.
var (
	defaultRed      = codenames.RGB{R: 220, G: 60, B: 60}
	defaultBlue     = codenames.RGB{R: 20, G: 125, B: 200}
	defaultAssassin = codenames.RGB{R: 50, G: 50, B: 50}
	defaultNeutral  = codenames.RGB{R: 220, G: 215, B: 210}
)

// SpymasterView reports whether a viewer in the given seat gets the
// all-revealing view of the board.
func SpymasterView(role codenames.Role, finished bool) bool {
	return role.IsSpymaster() || finished
}

// VisibleType is the card color a viewer is allowed to observe: the true
// type for the all-revealing view or for a revealed card, NEUTRAL
// otherwise.
func VisibleType(c codenames.Card, spymasterView bool) codenames.CardType {
	if spymasterView || c.Revealed {
		return c.Type
	}
	return codenames.CardNeutral
}

// Palette resolves card types to colors, honoring a player's overrides.
type Palette struct {
	settings *codenames.PlayerSettings
}

// NewPalette builds a palette from a player's settings. A nil settings
// value gives the default colors.
func NewPalette(settings *codenames.PlayerSettings) Palette {
	return Palette{settings: settings}
}

func (p Palette) Color(ct codenames.CardType) color.NRGBA {
	if o := p.settings.Color(ct); o != nil {
		return color.NRGBA{R: o.R, G: o.G, B: o.B, A: 255}
	}
	var rgb codenames.RGB
	switch ct {
	case codenames.CardRed:
		rgb = defaultRed
	case codenames.CardBlue:
		rgb = defaultBlue
	case codenames.CardAssassin:
		rgb = defaultAssassin
	default:
		rgb = defaultNeutral
	}
	return color.NRGBA{R: rgb.R, G: rgb.G, B: rgb.B, A: 255}
}

// TeamColor is the palette color for a team's cards.
func (p Palette) TeamColor(t codenames.Team) color.NRGBA {
	if t == codenames.TeamRed {
		return p.Color(codenames.CardRed)
	}
	return p.Color(codenames.CardBlue)
}

// ButtonStyle mirrors the button color classes of chat platforms.
type ButtonStyle string

const (
	StyleGrey    = ButtonStyle("grey")
	StyleRed     = ButtonStyle("red")
	StyleBlurple = ButtonStyle("blurple")
	StyleGreen   = ButtonStyle("green")
)

func styleFor(ct codenames.CardType) ButtonStyle {
	switch ct {
	case codenames.CardRed:
		return StyleRed
	case codenames.CardBlue:
		return StyleBlurple
	case codenames.CardAssassin:
		return StyleGreen
	}
	return StyleGrey
}

// Button is one card rendered for the text/button view. Word is the
// card's real word for routing the press; Label is what the viewer
// sees.
type Button struct {
	Word  string      `json:"word"`
	Label string      `json:"label"`
	Emoji string      `json:"emoji,omitempty"`
	Style ButtonStyle `json:"style"`
}

// Buttons renders the 25 cards as buttons for one viewer. Labels are
// underscore-padded to the longest word on the board so the grid lines
// up; a revealed card collapses to an underscore run plus its emoji.
func Buttons(b *codenames.Board, viewer codenames.Role, finished bool) []Button {
	spymasterView := SpymasterView(viewer, finished)
	maxLen := b.MaxWordLen()

	out := make([]Button, 0, len(b.Cards))
	for _, c := range b.Cards {
		visible := VisibleType(c, spymasterView)
		btn := Button{
			Word:  c.Word,
			Label: padWord(c.Word, maxLen),
			Style: styleFor(visible),
		}
		if spymasterView && c.Type == codenames.CardAssassin {
			btn.Emoji = codenames.CardAssassin.Emoji()
		}
		if c.Revealed {
			// Leave room for the emoji; the spymaster view keeps an
			// extra underscore since its labels run wider already.
			pad := maxLen - 2
			if spymasterView {
				pad = maxLen - 1
			}
			if pad < 0 {
				pad = 0
			}
			btn.Label = strings.Repeat("_", pad)
			btn.Emoji = c.Type.Emoji()
		}
		out = append(out, btn)
	}
	return out
}

// padWord centers a word with underscores out to the given width.
func padWord(word string, width int) string {
	n := (width - len(word)) / 2
	if n < 0 {
		n = 0
	}
	pad := strings.Repeat("_", n)
	return pad + word + pad
}
