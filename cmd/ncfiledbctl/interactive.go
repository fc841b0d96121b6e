package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/chzyer/readline"

	"github.com/cesnet/ncfiledb/pkg/editconfig"
	"github.com/cesnet/ncfiledb/pkg/filestore"
	"github.com/cesnet/ncfiledb/pkg/nacm"
	"github.com/cesnet/ncfiledb/pkg/session"
)

// InteractiveShell drives a *filestore.Datastore from a readline
// prompt, one operation per command.
type InteractiveShell struct {
	ds   *filestore.Datastore
	sess *session.Session
	rl   *readline.Instance
}

// NewInteractiveShell creates a new interactive shell bound to ds,
// establishing a fresh session for username.
func NewInteractiveShell(ds *filestore.Datastore, username string) (*InteractiveShell, error) {
	sess := session.New(username, "localhost", nil)

	completer := createCompleter()
	rl, err := readline.NewEx(&readline.Config{
		Prompt:              "ncfiledb> ",
		HistoryFile:         "/tmp/.ncfiledbctl-history",
		AutoComplete:        completer,
		InterruptPrompt:     "^C",
		EOFPrompt:           "exit",
		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize readline: %w", err)
	}

	return &InteractiveShell{ds: ds, sess: sess, rl: rl}, nil
}

// Run starts the interactive shell loop.
func (sh *InteractiveShell) Run() error {
	defer sh.rl.Close()

	fmt.Println("ncfiledbctl — file-backed NETCONF datastore shell")
	fmt.Printf("session %s as %s; type 'help' for commands, 'exit' to leave\n", sh.sess.ID, sh.sess.Username)
	fmt.Println()

	for {
		line, err := sh.rl.Readline()
		if err != nil { // io.EOF, readline.ErrInterrupt
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if err := sh.processCommand(line); err != nil {
			if err.Error() == "exit" {
				break
			}
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}
	return nil
}

func (sh *InteractiveShell) processCommand(line string) error {
	parts := strings.Fields(line)
	command := parts[0]
	args := parts[1:]

	switch command {
	case "help", "?":
		sh.showHelp()
		return nil
	case "exit", "quit":
		return fmt.Errorf("exit")
	case "lock":
		return sh.cmdLock(args)
	case "unlock":
		return sh.cmdUnlock(args)
	case "lockinfo":
		return sh.cmdLockInfo(args)
	case "get-config":
		return sh.cmdGetConfig(args)
	case "delete-config":
		return sh.cmdDeleteConfig(args)
	case "copy-config":
		return sh.cmdCopyConfig(args)
	case "edit-config":
		return sh.cmdEditConfig(args)
	default:
		return fmt.Errorf("unknown command: %s. Type 'help' for available commands", command)
	}
}

func parseTarget(s string) (filestore.Target, error) {
	switch strings.ToLower(s) {
	case "running":
		return filestore.Running, nil
	case "startup":
		return filestore.Startup, nil
	case "candidate":
		return filestore.Candidate, nil
	case "config":
		return filestore.ConfigLiteral, nil
	default:
		return 0, fmt.Errorf("unsupported datastore: %s", s)
	}
}

func (sh *InteractiveShell) cmdLock(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: lock <running|startup|candidate>")
	}
	target, err := parseTarget(args[0])
	if err != nil {
		return err
	}
	if err := sh.ds.Lock(sh.sess, target); err != nil {
		return err
	}
	fmt.Println("OK")
	return nil
}

func (sh *InteractiveShell) cmdUnlock(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: unlock <running|startup|candidate>")
	}
	target, err := parseTarget(args[0])
	if err != nil {
		return err
	}
	if err := sh.ds.Unlock(sh.sess, target); err != nil {
		return err
	}
	fmt.Println("OK")
	return nil
}

func (sh *InteractiveShell) cmdLockInfo(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: lockinfo <running|startup|candidate>")
	}
	target, err := parseTarget(args[0])
	if err != nil {
		return err
	}
	sid, at, ok := sh.ds.LockInfo(target)
	if !ok {
		fmt.Println("unlocked")
		return nil
	}
	fmt.Printf("locked by %s since %s\n", sid, at.Format("2006-01-02T15:04:05Z07:00"))
	return nil
}

func (sh *InteractiveShell) cmdGetConfig(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: get-config <running|startup|candidate>")
	}
	target, err := parseTarget(args[0])
	if err != nil {
		return err
	}
	out, err := sh.ds.GetConfig(sh.sess, target)
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

func (sh *InteractiveShell) cmdDeleteConfig(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: delete-config <startup|candidate>")
	}
	target, err := parseTarget(args[0])
	if err != nil {
		return err
	}
	if err := sh.ds.DeleteConfig(sh.sess, target); err != nil {
		return err
	}
	fmt.Println("OK")
	return nil
}

func (sh *InteractiveShell) cmdCopyConfig(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: copy-config <target> <source>")
	}
	target, err := parseTarget(args[0])
	if err != nil {
		return err
	}
	source, err := parseTarget(args[1])
	if err != nil {
		return err
	}

	var payload string
	if source == filestore.ConfigLiteral {
		fmt.Println("enter literal source XML, end with a line containing only '.':")
		payload, err = readPayload()
		if err != nil {
			return err
		}
	}

	ctx := nacm.Context{Session: sh.sess, Operation: "copy-config"}
	if err := sh.ds.CopyConfig(sh.sess, ctx, target, source, payload); err != nil {
		return err
	}
	fmt.Println("OK")
	return nil
}

func (sh *InteractiveShell) cmdEditConfig(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: edit-config <target>")
	}
	target, err := parseTarget(args[0])
	if err != nil {
		return err
	}

	fmt.Println("enter edit-config XML, end with a line containing only '.':")
	payload, err := readPayload()
	if err != nil {
		return err
	}

	ctx := nacm.Context{Session: sh.sess, Operation: "edit-config"}
	if err := sh.ds.EditConfig(sh.sess, ctx, target, payload, editconfig.DefaultOpMerge, editconfig.ErrorStop); err != nil {
		return err
	}
	fmt.Println("OK")
	return nil
}

func readPayload() (string, error) {
	reader := bufio.NewReader(os.Stdin)
	var b strings.Builder
	for {
		line, err := reader.ReadString('\n')
		trimmed := strings.TrimRight(line, "\r\n")
		if trimmed == "." {
			return b.String(), nil
		}
		b.WriteString(trimmed)
		b.WriteByte('\n')
		if err != nil {
			return b.String(), nil
		}
	}
}

func (sh *InteractiveShell) showHelp() {
	fmt.Println("Available commands:")
	fmt.Println("  help                                  Show this help message")
	fmt.Println("  lock <target>                         Acquire the NETCONF lock")
	fmt.Println("  unlock <target>                       Release the NETCONF lock")
	fmt.Println("  lockinfo <target>                     Show the current lock holder")
	fmt.Println("  get-config <target>                   Print a datastore's children")
	fmt.Println("  delete-config <startup|candidate>     Delete a datastore's children")
	fmt.Println("  copy-config <target> <source>         Copy source into target (source may be 'config')")
	fmt.Println("  edit-config <target>                  Merge an XML fragment into target")
	fmt.Println("  exit, quit                             Exit the shell")
	fmt.Println()
	fmt.Println("targets: running, startup, candidate")
}

func createCompleter() *readline.PrefixCompleter {
	targets := func() []readline.PrefixCompleterInterface {
		return []readline.PrefixCompleterInterface{
			readline.PcItem("running"),
			readline.PcItem("startup"),
			readline.PcItem("candidate"),
		}
	}
	return readline.NewPrefixCompleter(
		readline.PcItem("help"),
		readline.PcItem("exit"),
		readline.PcItem("quit"),
		readline.PcItem("lock", targets()...),
		readline.PcItem("unlock", targets()...),
		readline.PcItem("lockinfo", targets()...),
		readline.PcItem("get-config", targets()...),
		readline.PcItem("delete-config", targets()...),
		readline.PcItem("copy-config", targets()...),
		readline.PcItem("edit-config", targets()...),
	)
}

func filterInput(r rune) (rune, bool) {
	switch r {
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}
