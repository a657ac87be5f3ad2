package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/ergochat/readline"

	tokensync "github.com/pvignau/design-tokens-manager"
	"github.com/pvignau/design-tokens-manager/network"
	"github.com/pvignau/design-tokens-manager/utils"
)

var completer = readline.NewPrefixCompleter(
	readline.PcItem("help"),

	readline.PcItem("show"),
	readline.PcItem("clients"),

	readline.PcItem("sync"),
	readline.PcItem("create"),
	readline.PcItem("update"),
	readline.PcItem("delete"),

	readline.PcItem("import"),
	readline.PcItem("export"),

	readline.PcItem("exit"),
	readline.PcItem("quit"),
)

func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

func main() {
	pushAddr := flag.String("push", ":8080", "push (WebSocket) listen address")
	apiAddr := flag.String("api", ":8081", "poll/stream (HTTP) listen address")
	debug := flag.Bool("debug", false, "debug logging")
	noREPL := flag.Bool("no-repl", false, "run headless, without the debug console")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	log := utils.NewDefaultLogger(level)

	opts := tokensync.Options{
		PushListenAddr: *pushAddr,
		APIListenAddr:  *apiAddr,
	}
	relay := tokensync.NewRelay(log, opts)
	server := network.NewServer(log, relay, opts)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serveErr := make(chan error, 1)
	go func() { serveErr <- server.Serve(ctx) }()

	if *noREPL {
		if err := <-serveErr; err != nil {
			_, _ = fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
		return
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "◌ ",
		HistoryFile:     ".tokensync_cmd_log.txt",
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
	rl.CaptureExitSignal()
	defer rl.Close()

	console := &Console{relay: relay}
	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt && len(line) != 0 {
			continue
		}
		if err == io.EOF || err == readline.ErrInterrupt {
			break
		}
		if err != nil {
			_, _ = fmt.Fprintln(os.Stderr, err.Error())
			break
		}

		line = strings.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		cmd, arg := line, ""
		if ws := strings.IndexAny(line, " \t"); ws > 0 {
			cmd = line[:ws]
			arg = strings.TrimSpace(line[ws:])
		}
		if cmd == "exit" || cmd == "quit" {
			break
		}

		if err := console.Run(cmd, arg); err != nil {
			_, _ = fmt.Fprintln(os.Stderr, err.Error())
		}
	}
}
