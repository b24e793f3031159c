// Command boardgen deals a fresh board and prints the spymaster's view,
// optionally rendering it to a PNG.
package main

import (
	"log"
	"os"

	"github.com/mkarlsen/codenames/boardgen"
	"github.com/mkarlsen/codenames/codenames"
	"github.com/mkarlsen/codenames/cryptorand"
	"github.com/mkarlsen/codenames/render"
	"github.com/mkarlsen/codenames/termio"
	"github.com/mkarlsen/codenames/wordlist"
	"github.com/namsral/flag"
)

func main() {
	var (
		starter  = flag.String("starter", "", "Which team starts, 'red' or 'blue'. Random if unset.")
		wordFile = flag.String("word_file", "", "Optional word list file, one word per line")
		pngOut   = flag.String("png", "", "If set, write the board as a PNG to this path")
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

	b := boardgen.New(starting, words.Words(), r)

	viewer := codenames.Spymaster(starting)
	termio.New(os.Stdin, os.Stdout).PrintBoard(b, viewer, false)

	if *pngOut == "" {
		return
	}
	f, err := os.Create(*pngOut)
	if err != nil {
		log.Fatalf("failed to create %q: %v", *pngOut, err)
	}
	defer f.Close()
	if err := render.PNG(f, b, render.ImageOptions{
		Viewer:   viewer,
		TurnTeam: starting,
	}); err != nil {
		log.Fatalf("failed to render board: %v", err)
	}
	log.Printf("wrote %q", *pngOut)
}
