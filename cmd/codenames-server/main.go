package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mkarlsen/codenames/cryptorand"
	"github.com/mkarlsen/codenames/hub"
	"github.com/mkarlsen/codenames/names"
	"github.com/mkarlsen/codenames/reaper"
	"github.com/mkarlsen/codenames/session"
	"github.com/mkarlsen/codenames/sqlstore"
	"github.com/mkarlsen/codenames/web"
	"github.com/mkarlsen/codenames/wordlist"
	"github.com/namsral/flag"
)

func main() {
	// Flags can also come from the environment or a .env file.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Fatalf("failed to load .env file: %v", err)
	}

	var (
		addr         = flag.String("addr", ":8080", "HTTP service address")
		dbPath       = flag.String("db_path", "codenames.db", "Path to the SQLite DB file")
		keyDir       = flag.String("key_dir", ".", "Directory holding the cookie key files")
		wordFile     = flag.String("word_file", "", "Optional word list file, one word per line")
		reapInterval = flag.Duration("reap_interval", time.Hour, "How often to sweep for idle games")
	)
	flag.Parse()

	words := wordlist.Default()
	if *wordFile != "" {
		var err error
		if words, err = wordlist.New(*wordFile); err != nil {
			log.Fatalf("failed to load word list: %v", err)
		}
	}

	store, err := sqlstore.New(*dbPath)
	if err != nil {
		log.Fatalf("failed to initialize datastore: %v", err)
	}

	h := hub.New()
	notifier := session.LogNotifier{}
	c := session.New(store, h, names.NewCached(names.NewStored(store)), words, cryptorand.NewRand(), notifier)

	srv, err := web.New(c, store, h, notifier, *keyDir)
	if err != nil {
		log.Fatalf("failed to initialize server: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go reaper.New(store, h).Run(ctx, *reapInterval)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		cancel()
		store.Close()
		os.Exit(1)
	}()

	log.Printf("Server is running on %q", *addr)
	if err := http.ListenAndServe(*addr, srv); err != nil {
		log.Fatal("ListenAndServe: ", err)
	}
}
