package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/repochat/web/internal/model/chat"
	"github.com/repochat/web/internal/service/gateway"
)

func init() {
	rootCmd.AddCommand(chatCmd)
}

var chatCmd = &cobra.Command{
	Use:   "chat <repo-url>",
	Short: "Analyze a repository, then chat about it interactively",
	Long: `Analyze a repository, then read questions from stdin until EOF.

Type "exit" or "quit" to leave the session.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		gw := newGateway()
		data, err := gw.Analyze(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		printRepo(out, data, plain)
		fmt.Fprintln(out)

		return runREPL(cmd.Context(), cmd.InOrStdin(), out, gw, args[0], func(s string) string {
			return renderMarkdown(s, plain)
		})
	},
}

// asker is the part of the gateway the chat loop needs.
type asker interface {
	Ask(ctx context.Context, repoURL, question string) (string, error)
}

// runREPL drives one conversation over in/out until EOF or an exit command.
func runREPL(ctx context.Context, in io.Reader, out io.Writer, gw asker, repoURL string, render func(string) string) error {
	conv := chat.NewConversation()
	fmt.Fprintln(out, render(chat.Greeting))

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		line := scanner.Text()
		switch strings.TrimSpace(line) {
		case "exit", "quit":
			return nil
		}

		if _, err := conv.Submit(line); err != nil {
			if errors.Is(err, chat.ErrBlankInput) {
				continue
			}
			return err
		}

		answer, err := gw.Ask(ctx, repoURL, line)
		if err != nil {
			if ctx.Err() != nil {
				conv.Abandon()
				return ctx.Err()
			}
			msg, failErr := conv.Fail(reason(err))
			if failErr != nil {
				return failErr
			}
			fmt.Fprintln(out, msg.Content)
			continue
		}

		msg, err := conv.Resolve(answer)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, render(msg.Content))
	}
}

func reason(err error) string {
	var queryErr *gateway.QueryError
	if errors.As(err, &queryErr) {
		return queryErr.Message
	}
	return err.Error()
}
