package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/pokerpad/pokerpad/internal/config"
	"github.com/pokerpad/pokerpad/internal/credstore"
	"github.com/pokerpad/pokerpad/internal/engine"
	"github.com/pokerpad/pokerpad/internal/transport"
	"github.com/pokerpad/pokerpad/internal/view"
)

func main() {
	configPath := flag.String("config", os.Getenv("POKER_CONFIG"), "path to YAML config file")
	flag.Parse()

	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("could not load .env file")
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	creds, err := credstore.Open(cfg.StatePath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.StatePath).Msg("failed to open credential store")
	}
	defer creds.Close()

	tr := transport.NewWebSocket(transport.DefaultConfig(cfg.ServerURL))

	eng := engine.New(tr, creds,
		engine.WithReconnectDelay(cfg.ReconnectDelay),
		engine.WithSnapshotFunc(renderSnapshot),
		engine.WithNoticeFunc(func(msg string) {
			fmt.Fprintf(os.Stderr, "! %s\n", msg)
		}),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Info().Str("server", cfg.ServerURL).Msg("starting pokerpad client")
	if err := eng.Start(ctx); err != nil {
		log.Warn().Err(err).Msg("initial connection failed, retrying in background")
	}

	go readCommands(eng)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan

	log.Info().Str("signal", sig.String()).Msg("shutting down")
	if err := eng.Close(); err != nil {
		log.Warn().Err(err).Msg("close failed")
	}
}

// readCommands drives the engine from stdin, one command per line.
func readCommands(eng *engine.Engine) {
	usage := func() {
		fmt.Println(`commands:
  connect <username>        start a fresh session
  join <roomID>             join an existing room
  create <game> <name...>   create a room (game: effort|retro) and join it
  vote <score>              cast a vote in the current room
  new [name...]             start a new round
  end                       reveal the cards
  name <username>           rename yourself
  quit`)
	}

	ackLog := func(r transport.Result) {
		if r.OK() {
			fmt.Println("ok")
		}
	}

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		snap := eng.Snapshot()

		switch fields[0] {
		case "connect":
			if len(fields) < 2 {
				usage()
				continue
			}
			if err := eng.Connect(fields[1]); err != nil {
				log.Warn().Err(err).Msg("connect failed")
			}
		case "join":
			if len(fields) < 2 {
				usage()
				continue
			}
			eng.Join(fields[1], ackLog)
		case "create":
			if len(fields) < 3 {
				usage()
				continue
			}
			eng.CreateRoomAndJoin(strings.Join(fields[2:], " "), fields[1], ackLog)
		case "vote":
			if len(fields) < 2 || snap.Room == nil {
				usage()
				continue
			}
			eng.Vote(fields[1], snap.Room.RoomID, ackLog)
		case "new":
			if snap.Room == nil {
				continue
			}
			eng.NewRound(snap.Room.RoomID, engine.RoundOptions{Name: strings.Join(fields[1:], " ")}, ackLog)
		case "end":
			if snap.Room == nil {
				continue
			}
			eng.EndVote(snap.Room.RoomID, ackLog)
		case "name":
			if len(fields) < 2 || snap.LocalUser == nil {
				usage()
				continue
			}
			user := *snap.LocalUser
			user.Name = strings.Join(fields[1:], " ")
			eng.UpdateUser(user, ackLog)
		case "quit":
			return
		default:
			usage()
		}
	}
}

// renderSnapshot prints a one-line table of the current vote view.
func renderSnapshot(snap engine.Snapshot) {
	if snap.Room == nil {
		return
	}

	if scores := view.AnonymousScores(snap.Votes, snap.CurrentRound); scores != nil {
		glyphs := make([]string, len(scores))
		for i, s := range scores {
			glyphs[i] = view.Glyph(s)
		}
		fmt.Printf("[%s] revealed (anonymous): %s\n", snap.Room.Name, strings.Join(glyphs, " "))
		return
	}

	cards := view.PlayerCards(snap.Users, snap.Votes, snap.CurrentRound)
	parts := make([]string, len(cards))
	for i, c := range cards {
		name := c.Name
		if name == "" {
			name = view.DisplayName(snap.Users, c.UserID)
		}
		parts[i] = fmt.Sprintf("%s %s", name, view.CardGlyph(c))
	}
	fmt.Printf("[%s] %s (%s)\n", snap.Room.Name, strings.Join(parts, " | "), snap.Status)
}
