package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/stahnma/gh-orgstars/internal/secrets"
	"golang.org/x/term"
)

func (a *App) newTokenCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage the stored GitHub API token",
	}
	cmd.AddCommand(a.newTokenSetCommand())
	cmd.AddCommand(a.newTokenGetCommand())
	cmd.AddCommand(a.newTokenDeleteCommand())
	return cmd
}

func (a *App) newTokenSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set",
		Short: "Store a GitHub API token, read from the terminal or stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := readToken(cmd)
			if err != nil {
				return err
			}
			if token == "" {
				return errors.New("empty token")
			}
			if err := a.Store.Save(secrets.KeyAPIKey, token); err != nil {
				return fmt.Errorf("saving token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Token saved.")
			return nil
		},
	}
}

func (a *App) newTokenGetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Show the stored GitHub API token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := a.Store.Retrieve(secrets.KeyAPIKey)
			if errors.Is(err, secrets.ErrNotFound) {
				fmt.Fprintln(cmd.OutOrStdout(), "No token stored.")
				return nil
			}
			if err != nil {
				return fmt.Errorf("reading token: %w", err)
			}
			if show, _ := cmd.Flags().GetBool("show"); !show {
				token = mask(token)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().Bool("show", false, "Print the token unmasked")
	return cmd
}

func (a *App) newTokenDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete",
		Short: "Remove the stored GitHub API token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.Store.Delete(secrets.KeyAPIKey); err != nil {
				return fmt.Errorf("deleting token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Token deleted.")
			return nil
		},
	}
}

// readToken prompts without echo on a terminal, otherwise reads one line.
func readToken(cmd *cobra.Command) (string, error) {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), "GitHub token: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("reading token: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading token: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// mask keeps the first and last four characters of long tokens.
func mask(token string) string {
	if len(token) <= 8 {
		return strings.Repeat("*", len(token))
	}
	return token[:4] + strings.Repeat("*", len(token)-8) + token[len(token)-4:]
}
