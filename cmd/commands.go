package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	tokensync "github.com/pvignau/design-tokens-manager"
	"github.com/pvignau/design-tokens-manager/protocol"
	"github.com/pvignau/design-tokens-manager/tokens"
)

// Console is the debug surface of the relay binary. Mutations are
// injected through the same Deliver path as any remote client, so they
// broadcast normally; the console's origin matches no connection.
type Console struct {
	relay *tokensync.Relay
}

const consoleSource = "console"

var ErrUnknownCommand = errors.New("unknown command, try help")

var HelpCreate = errors.New(`create {"id":"c1","name":"Brand/Primary","type":"color","value":"#0066CC"}`)
var HelpUpdate = errors.New(`update {"id":"c1","name":"Brand/Primary","type":"color","value":"#003366"}`)
var HelpDelete = errors.New("delete <token id>")
var HelpImport = errors.New("import <dtcg file>")
var HelpExport = errors.New("export <dtcg file>")

func (c *Console) Run(cmd, arg string) error {
	switch cmd {
	case "help":
		fmt.Println("show | clients | sync | create {json} | update {json} | delete <id> | import <file> | export <file> | exit")
		return nil
	case "show":
		return c.CommandShow()
	case "clients":
		return c.CommandClients()
	case "sync":
		return c.CommandSync()
	case "create":
		return c.CommandCreate(arg)
	case "update":
		return c.CommandUpdate(arg)
	case "delete":
		return c.CommandDelete(arg)
	case "import":
		return c.CommandImport(arg)
	case "export":
		return c.CommandExport(arg)
	}
	return ErrUnknownCommand
}

func (c *Console) CommandShow() error {
	snap := c.relay.Store().Snapshot()
	if len(snap) == 0 {
		fmt.Println("no tokens")
		return nil
	}
	for _, t := range snap {
		fmt.Printf("%-32s %-12s %v\n", t.Name, t.Type, t.Value)
	}
	return nil
}

func (c *Console) CommandClients() error {
	ws, sse, total := c.relay.Counts()
	fmt.Printf("ws %d, sse %d, total %d\n", ws, sse, total)
	return nil
}

// CommandSync rebroadcasts the current state to every client.
func (c *Console) CommandSync() error {
	return c.relay.Deliver(protocol.NewSync(c.relay.Store().Snapshot()), consoleSource)
}

func (c *Console) CommandCreate(arg string) error {
	tok, err := parseToken(arg)
	if err != nil {
		return HelpCreate
	}
	return c.relay.Deliver(protocol.NewCreate(tok), consoleSource)
}

func (c *Console) CommandUpdate(arg string) error {
	tok, err := parseToken(arg)
	if err != nil {
		return HelpUpdate
	}
	return c.relay.Deliver(protocol.NewUpdate(tok), consoleSource)
}

func (c *Console) CommandDelete(arg string) error {
	if arg == "" {
		return HelpDelete
	}
	return c.relay.Deliver(protocol.NewDelete(arg), consoleSource)
}

func (c *Console) CommandImport(arg string) error {
	if arg == "" {
		return HelpImport
	}
	raw, err := os.ReadFile(arg)
	if err != nil {
		return err
	}
	toks, err := tokens.FromDTCG(raw)
	if err != nil {
		return err
	}
	if err := c.relay.Deliver(protocol.NewSync(toks), consoleSource); err != nil {
		return err
	}
	fmt.Printf("imported %d tokens\n", len(toks))
	return nil
}

func (c *Console) CommandExport(arg string) error {
	if arg == "" {
		return HelpExport
	}
	raw, err := tokens.ToDTCG(c.relay.Store().Snapshot())
	if err != nil {
		return err
	}
	if err := os.WriteFile(arg, raw, 0o644); err != nil {
		return err
	}
	fmt.Printf("exported %d tokens to %s\n", c.relay.Store().Len(), arg)
	return nil
}

func parseToken(arg string) (tokens.Token, error) {
	var tok tokens.Token
	if err := json.Unmarshal([]byte(arg), &tok); err != nil {
		return tok, err
	}
	if tok.ID == "" || !tok.Type.Known() {
		return tok, errors.New("token needs an id and a known type")
	}
	if tok.Origin == "" {
		tok.Origin = tokens.OriginManual
	}
	return tok, nil
}
