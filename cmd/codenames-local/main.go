// Command codenames-local plays a hotseat game in the terminal: the
// four seats share one screen and take turns at the keyboard.
package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/mkarlsen/codenames/boardgen"
	"github.com/mkarlsen/codenames/codenames"
	"github.com/mkarlsen/codenames/cryptorand"
	"github.com/mkarlsen/codenames/game"
	"github.com/mkarlsen/codenames/names"
	"github.com/mkarlsen/codenames/termio"
	"github.com/mkarlsen/codenames/wordlist"
	"github.com/namsral/flag"
)

func main() {
	var (
		starter  = flag.String("starter", "", "Which team starts, 'red' or 'blue'. Random if unset.")
		wordFile = flag.String("word_file", "", "Optional word list file, one word per line")
	)
	flag.Parse()

	r := cryptorand.NewRand()

	starting := codenames.RandomTeam(r)
	switch *starter {
	case "":
	case "red":
		starting = codenames.TeamRed
	case "blue":
		starting = codenames.TeamBlue
	default:
		log.Fatalf("invalid team %q, 'red' and 'blue' are the only valid teams", *starter)
	}

	words := wordlist.Default()
	if *wordFile != "" {
		var err error
		if words, err = wordlist.New(*wordFile); err != nil {
			log.Fatalf("failed to load word list: %v", err)
		}
	}

	roles := map[codenames.Role]codenames.PlayerID{
		codenames.RoleRedSpymaster:  "red-spymaster",
		codenames.RoleRedOperative:  "red-operative",
		codenames.RoleBlueSpymaster: "blue-spymaster",
		codenames.RoleBlueOperative: "blue-operative",
	}
	resolver := names.Static{
		"red-spymaster":  "Red Spymaster",
		"red-operative":  "Red Operative",
		"blue-spymaster": "Blue Spymaster",
		"blue-operative": "Blue Operative",
	}

	board := boardgen.New(starting, words.Words(), r)
	g, err := game.New("local", roles, board, starting, resolver.Name)
	if err != nil {
		log.Fatalf("failed to start game: %v", err)
	}

	term := termio.New(os.Stdin, os.Stdout)
	fmt.Printf("The %s team goes first.\n", starting)

	for !g.Finished() {
		role := g.CurrentRole()
		team, _ := role.Team()
		actor := roles[role]

		term.PrintBoard(g.State().Board, role, false)
		fmt.Printf("Cards left (red - blue): %s\n", g.CardsLeft())

		var res *game.Result
		if role.IsSpymaster() {
			clue, perr := term.PromptClue(team)
			if errors.Is(perr, io.EOF) {
				return
			} else if perr != nil {
				fmt.Println(perr)
				continue
			}
			res, err = g.GiveClue(actor, clue.Word, clue.Count)
		} else {
			word, ok, perr := term.PromptGuess(team)
			if errors.Is(perr, io.EOF) {
				return
			} else if perr != nil {
				fmt.Println(perr)
				continue
			}
			if !ok {
				res, err = g.EndTurn(actor)
			} else {
				res, err = g.GuessCard(actor, word)
			}
		}
		if err != nil {
			if codenames.IsRuleError(err) {
				fmt.Println(err)
				continue
			}
			log.Fatalf("game error: %v", err)
		}

		if res.Finished {
			term.PrintBoard(g.State().Board, role, true)
			fmt.Printf("The %s team wins!\n", res.Winner)
		}
	}
}
