package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// execIface is the command surface the REPL dispatches to. App satisfies
// it; tests provide a recording stub.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context, args []string) error
	Logout(ctx context.Context, args []string) error
	Whoami(ctx context.Context, args []string) error
	Tables(ctx context.Context, args []string) error
	Refresh(ctx context.Context, args []string) error
	Use(ctx context.Context, args []string) error
	Show(ctx context.Context, args []string) error
	Search(ctx context.Context, args []string) error
	Add(ctx context.Context, args []string) error
	Edit(ctx context.Context, args []string) error
	Delete(ctx context.Context, args []string) error
	Export(ctx context.Context, args []string) error
	History(ctx context.Context, args []string) error
	AddUser(ctx context.Context, args []string) error
	Reset(ctx context.Context, args []string) error
	Profile(ctx context.Context, args []string) error
}

const (
	guestHelp = "Available commands: login, reset, help, exit"
	userHelp  = "Available commands: tables, refresh, use <table>, show, search <text>, add, edit [id], delete [id], " +
		"export <path|s3://key>, history [table], adduser, profile, whoami, logout, help, exit"
)

// runREPL reads commands from reader until end of input, "exit" or "quit".
// Command errors are reported to out and never stop the loop.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader, out io.Writer) {
	for {
		if ctx.Err() != nil {
			return
		}
		fmt.Fprintf(out, "nicole %s> ", statusFn())

		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			fmt.Fprintln(out)
			return
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := strings.ToLower(parts[0]), parts[1:]

		var cmdErr error
		switch cmd {
		case "help", "?":
			if a.isLoggedIn() {
				fmt.Fprintln(out, userHelp)
			} else {
				fmt.Fprintln(out, guestHelp)
			}
		case "login":
			cmdErr = a.Login(ctx, args)
		case "logout":
			cmdErr = a.Logout(ctx, args)
		case "whoami":
			cmdErr = a.Whoami(ctx, args)
		case "tables":
			cmdErr = a.Tables(ctx, args)
		case "refresh":
			cmdErr = a.Refresh(ctx, args)
		case "use":
			cmdErr = a.Use(ctx, args)
		case "show":
			cmdErr = a.Show(ctx, args)
		case "search":
			cmdErr = a.Search(ctx, args)
		case "add":
			cmdErr = a.Add(ctx, args)
		case "edit":
			cmdErr = a.Edit(ctx, args)
		case "delete":
			cmdErr = a.Delete(ctx, args)
		case "export":
			cmdErr = a.Export(ctx, args)
		case "history":
			cmdErr = a.History(ctx, args)
		case "adduser":
			cmdErr = a.AddUser(ctx, args)
		case "reset":
			cmdErr = a.Reset(ctx, args)
		case "profile":
			cmdErr = a.Profile(ctx, args)
		case "exit", "quit":
			fmt.Fprintln(out, "Bye!")
			return
		default:
			fmt.Fprintln(out, "Unknown command:", cmd)
		}

		if cmdErr != nil {
			fmt.Fprintln(out, describe(cmdErr))
		}
	}
}
