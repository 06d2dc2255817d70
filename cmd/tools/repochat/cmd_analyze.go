package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(analyzeCmd, askCmd)
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <repo-url>",
	Short: "Analyze a repository and print its summary",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := newGateway().Analyze(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		printRepo(cmd.OutOrStdout(), data, plain)
		return nil
	},
}

var askCmd = &cobra.Command{
	Use:   "ask <repo-url> <question>",
	Short: "Ask one question about an analyzed repository",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		answer, err := newGateway().Ask(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderMarkdown(answer, plain))
		return nil
	},
}
