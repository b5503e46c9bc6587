// Command arena is a headless participant for driving a relay from a
// terminal: it joins a room over the synchronization channel and maps
// stdin lines to store operations. Useful for poking a running relay
// without a drawing surface.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	zerologlog "github.com/rs/zerolog/log"

	"sketcharena/internal/config"
	"sketcharena/internal/game"
	"sketcharena/internal/judge"
	"sketcharena/internal/ws"
)

func main() {
	var (
		roomID = flag.String("room", "demo", "Room id to join")
		name   = flag.String("name", "", "Display name (default: generated)")
	)
	flag.Parse()

	zerolog.TimeFieldFormat = time.RFC3339
	cw := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	zerologlog.Logger = zerologlog.Output(cw)

	cfg := config.FromEnv()
	self := game.NewSelf()
	if *name != "" {
		self.Name = *name
	}

	store := game.NewStore(self)
	channel := ws.New(store, cfg.RelayURL, cfg.Reconnect, zerologlog.Logger)
	channel.Start()
	defer channel.Close()
	channel.JoinRoom(*roomID)

	ai := judge.New()
	fmt.Printf("joined %s as %s — /start /role painter|guesser /guess TEXT /ai TEXT /rooms /leave, anything else chats\n", *roomID, self.Name)

	sc := bufio.NewScanner(os.Stdin)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "":
		case line == "/leave":
			channel.LeaveRoom()
			return
		case line == "/start":
			store.StartRound(*roomID, cfg.RoundSeconds, cfg.AnswerOptions)
		case line == "/rooms":
			for _, r := range store.Sorted() {
				fmt.Printf("%s (%s) players=%d phase=%s timeLeft=%d\n", r.Name, r.ID, len(r.Players), r.Phase, r.TimeLeft)
			}
		case strings.HasPrefix(line, "/role "):
			store.SetPlayerRole(*roomID, self.ID, game.Role(strings.TrimPrefix(line, "/role ")))
		case strings.HasPrefix(line, "/guess "):
			text := strings.TrimPrefix(line, "/guess ")
			res := store.Guess(*roomID, text)
			store.AddMessage(*roomID, text)
			fmt.Printf("correct=%v target=%s\n", res.IsCorrect, res.Target)
		case strings.HasPrefix(line, "/ai "):
			res, _ := ai.Judge(context.Background(), strings.TrimPrefix(line, "/ai "))
			fmt.Println(res.Message)
		default:
			store.AddMessage(*roomID, line)
		}
	}
}
