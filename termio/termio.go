// Package termio renders boards and reads player input on a terminal,
// for hotseat games.
package termio

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/mkarlsen/codenames/codenames"
	"github.com/mkarlsen/codenames/render"
	"github.com/olekukonko/tablewriter"
)

// Term prompts on Out and reads responses from In.
type Term struct {
	In  io.Reader
	Out io.Writer

	sc *bufio.Scanner
}

func New(in io.Reader, out io.Writer) *Term {
	return &Term{In: in, Out: out, sc: bufio.NewScanner(in)}
}

// PrintBoard draws the board as a colored 5x5 table, disclosing card
// colors by the same rule as the other views: operatives only see what
// has been revealed.
func (t *Term) PrintBoard(b *codenames.Board, viewer codenames.Role, finished bool) {
	spymasterView := render.SpymasterView(viewer, finished)
	table := tablewriter.NewWriter(t.Out)

	for i := 0; i < codenames.Rows; i++ {
		var row []string
		var colors []tablewriter.Colors
		for j := 0; j < codenames.Columns; j++ {
			card := b.Cards[i*codenames.Columns+j]
			var c tablewriter.Colors
			switch render.VisibleType(card, spymasterView) {
			case codenames.CardBlue:
				c = append(c, tablewriter.FgBlueColor)
			case codenames.CardRed:
				c = append(c, tablewriter.FgHiRedColor)
			case codenames.CardAssassin:
				c = append(c, tablewriter.BgHiRedColor)
			}
			if card.Revealed {
				c = append(c, tablewriter.UnderlineSingle)
			}
			colors = append(colors, c)
			row = append(row, card.Word)
		}
		table.Rich(row, colors)
	}

	table.Render()
}

// PromptClue asks the acting spymaster for a clue.
func (t *Term) PromptClue(team codenames.Team) (*codenames.Clue, error) {
	fmt.Fprintf(t.Out, "%s spymaster, enter a clue [ex. 'Muffins 3']: ", teamLabel(team))
	line, err := t.readLine()
	if err != nil {
		return nil, err
	}
	return codenames.ParseClue(line)
}

// PromptGuess asks the acting operative for a card. An empty line ends
// the turn early and returns ok=false.
func (t *Term) PromptGuess(team codenames.Team) (string, bool, error) {
	fmt.Fprintf(t.Out, "%s operative, enter a guess, or nothing to end your turn: ", teamLabel(team))
	line, err := t.readLine()
	if err != nil {
		return "", false, err
	}
	word := strings.TrimSpace(line)
	if word == "" {
		return "", false, nil
	}
	return word, true, nil
}

func teamLabel(team codenames.Team) string {
	if team == codenames.TeamRed {
		return "Red"
	}
	return "Blue"
}

func (t *Term) readLine() (string, error) {
	if !t.sc.Scan() {
		if err := t.sc.Err(); err != nil {
			return "", fmt.Errorf("scanner error: %w", err)
		}
		return "", io.EOF
	}
	return t.sc.Text(), nil
}
