package render

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/mkarlsen/codenames/codenames"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	cardWidth    = 200
	cardHeight   = 150
	cardPadding  = 10
	cornerRadius = 25
	borderWidth  = 4
	textPadding  = 20
	baseFontSize = 28
	minFontSize  = 12

	// The board background is a faint wash of the acting team's color.
	backgroundAlpha = 30

	// BoardWidth and BoardHeight are the pixel dimensions of a rendered
	// board image.
	BoardWidth  = codenames.Columns*(cardWidth+cardPadding) - cardPadding
	BoardHeight = codenames.Rows*(cardHeight+cardPadding) - cardPadding
)

var cardFont *truetype.Font

func init() {
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		panic("failed to parse embedded font: " + err.Error())
	}
	cardFont = f
}

// ImageOptions selects how the board is drawn for one viewer.
type ImageOptions struct {
	Viewer   codenames.Role
	Finished bool
	// TurnTeam tints the board background with the acting team's color.
	TurnTeam codenames.Team
	// RevealCovered draws the covers of revealed cards at half opacity
	// so the words underneath show through.
	RevealCovered bool
	Settings      *codenames.PlayerSettings
}

// Image draws the 25 cards on a 5x5 grid for one viewer.
func Image(b *codenames.Board, opts ImageOptions) image.Image {
	palette := NewPalette(opts.Settings)
	spymasterView := SpymasterView(opts.Viewer, opts.Finished)

	dc := gg.NewContext(BoardWidth, BoardHeight)
	bg := palette.TeamColor(opts.TurnTeam)
	bg.A = backgroundAlpha
	dc.SetColor(bg)
	dc.Clear()

	for i, c := range b.Cards {
		row, col := i/codenames.Columns, i%codenames.Columns
		x := float64(col * (cardWidth + cardPadding))
		y := float64(row * (cardHeight + cardPadding))

		cardColor := palette.Color(VisibleType(c, spymasterView))
		dc.DrawRoundedRectangle(x, y, cardWidth, cardHeight, cornerRadius)
		dc.SetColor(cardColor)
		dc.Fill()

		drawWord(dc, c.Word, x, y, cardColor)

		if c.Revealed {
			alpha := uint8(255)
			if opts.RevealCovered {
				alpha = 128
			}
			mirrored := c.Type == codenames.CardAssassin
			cover := coverImage(palette.Color(c.Type), mirrored)
			dst := dc.Image().(*image.RGBA)
			rect := image.Rect(int(x), int(y), int(x)+cardWidth, int(y)+cardHeight)
			draw.DrawMask(dst, rect, cover, image.Point{}, image.NewUniform(color.Alpha{A: alpha}), image.Point{}, draw.Over)
		}

		// A faint border following the rounded corners.
		dc.DrawRoundedRectangle(x+borderWidth/2, y+borderWidth/2, cardWidth-borderWidth, cardHeight-borderWidth, cornerRadius-borderWidth/2)
		dc.SetColor(color.NRGBA{A: 40})
		dc.SetLineWidth(borderWidth)
		dc.Stroke()
	}

	return dc.Image()
}

// PNG writes the rendered board as a PNG.
func PNG(w io.Writer, b *codenames.Board, opts ImageOptions) error {
	return png.Encode(w, Image(b, opts))
}

// drawWord centers a card's word in its tile, shrinking the font until
// the word fits.
func drawWord(dc *gg.Context, word string, x, y float64, bg color.NRGBA) {
	size := float64(baseFontSize)
	face := faceAt(size)
	dc.SetFontFace(face)
	for w, _ := dc.MeasureString(word); size > minFontSize && w > cardWidth-textPadding; w, _ = dc.MeasureString(word) {
		size--
		face = faceAt(size)
		dc.SetFontFace(face)
	}

	dc.SetColor(textColor(bg))
	dc.DrawStringAnchored(word, x+cardWidth/2, y+cardHeight/2, 0.5, 0.5)
}

func faceAt(size float64) font.Face {
	return truetype.NewFace(cardFont, &truetype.Options{Size: size})
}

// textColor picks near-white or near-black for contrast against the
// card background, thresholding perceived brightness at 150.
func textColor(bg color.NRGBA) color.NRGBA {
	brightness := 0.299*float64(bg.R) + 0.587*float64(bg.G) + 0.114*float64(bg.B)
	if brightness < 150 {
		return color.NRGBA{R: 245, G: 245, B: 245, A: 255}
	}
	return color.NRGBA{R: 35, G: 35, B: 35, A: 255}
}

// coverImage draws the graphic laid over a revealed card: a rounded
// tile in a darkened shade of the card's color with diagonal stripes in
// the full color. The assassin's cover is mirrored so it stands out at
// a glance.
func coverImage(c color.NRGBA, mirrored bool) image.Image {
	dc := gg.NewContext(cardWidth, cardHeight)
	dc.DrawRoundedRectangle(0, 0, cardWidth, cardHeight, cornerRadius)
	dc.Clip()

	dc.SetColor(shade(c, 0.65))
	dc.DrawRectangle(0, 0, cardWidth, cardHeight)
	dc.Fill()

	dc.SetColor(c)
	dc.SetLineWidth(22)
	for offset := -cardHeight; offset < cardWidth+cardHeight; offset += 34 {
		x0, x1 := float64(offset), float64(offset+cardHeight)
		if mirrored {
			x0, x1 = x1, x0
		}
		dc.DrawLine(x0, 0, x1, cardHeight)
		dc.Stroke()
	}

	return dc.Image()
}

func shade(c color.NRGBA, factor float64) color.NRGBA {
	return color.NRGBA{
		R: uint8(float64(c.R) * factor),
		G: uint8(float64(c.G) * factor),
		B: uint8(float64(c.B) * factor),
		A: c.A,
	}
}
