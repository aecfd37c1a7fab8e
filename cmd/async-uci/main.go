package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	nchess "github.com/corentings/chess/v2"

	"github.com/manuelpepe/async-uci/internal/obslog"
	"github.com/manuelpepe/async-uci/internal/uci"
)

const pollInterval = 25 * time.Millisecond

func main() {
	showMoves := flag.Bool("moves", false, "print the principal variation with each evaluation")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [-moves] <fen>\n", os.Args[0])
		os.Exit(2)
	}
	fen := strings.TrimSpace(flag.Arg(0))
	if _, err := nchess.FEN(fen); err != nil {
		log.Fatalf("invalid fen %q: %v", fen, err)
	}

	enginePath := strings.TrimSpace(os.Getenv("ENGINE_PATH"))
	if enginePath == "" {
		log.Fatal("ENGINE_PATH is required")
	}

	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer obslog.L().Sync()

	eng, err := uci.NewEngine(enginePath)
	if err != nil {
		log.Fatalf("engine spawn error: %v", err)
	}
	defer eng.Close()

	ctx := context.Background()
	if err := eng.StartUCI(ctx); err != nil {
		log.Fatalf("uci handshake error: %v", err)
	}
	if err := eng.NewGame(ctx); err != nil {
		log.Fatalf("new game error: %v", err)
	}
	if err := eng.SetPosition(fen); err != nil {
		log.Fatalf("set position error: %v", err)
	}
	if err := eng.GoInfinite(); err != nil {
		log.Fatalf("start search error: %v", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	var last uci.Evaluation
	var seen bool
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			_ = eng.Stop()
			return
		case <-ticker.C:
			ev, ok := eng.Evaluation()
			if !ok {
				continue
			}
			if seen && ev.Equal(last) {
				continue
			}
			if *showMoves {
				fmt.Printf("%s\npv: %s\n", ev, strings.Join(ev.PV, ", "))
			} else {
				fmt.Println(ev)
			}
			last = ev
			seen = true
		}
	}
}
