package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/artisanhosting/artisan-cli/internal/app"
)

func authCommand() *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "manage the stored session",
		Commands: []*cli.Command{
			{
				Name:      "login",
				Usage:     "log in and store the session and credentials",
				ArgsUsage: "<email> [password]",
				Action:    action(loginAction),
			},
			{
				Name:   "token",
				Usage:  "print a usable access token, refreshing it if needed",
				Action: action(tokenAction),
			},
			{
				Name:   "status",
				Usage:  "show the stored session state without contacting the API",
				Action: action(statusAction),
			},
			{
				Name:   "whoami",
				Usage:  "show the identity behind the session",
				Action: action(whoamiAction),
			},
			{
				Name:   "discover",
				Usage:  "check that the session is accepted by the API",
				Action: action(discoverAction),
			},
		},
	}
}

func loginAction(ctx context.Context, cmd *cli.Command, application *app.App) error {
	email := cmd.Args().Get(0)
	if email == "" {
		return errors.New("missing email argument")
	}

	password := cmd.Args().Get(1)
	if password == "" {
		var err error
		password, err = readPassword(cmd.Root().ErrWriter)
		if err != nil {
			return err
		}
	}

	if err := application.Login(ctx, email, password); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	_, _ = fmt.Fprintln(cmd.Root().Writer, "Logged in as", email)
	return nil
}

// readPassword prompts without echo on a terminal and otherwise reads one
// line from stdin.
func readPassword(prompt io.Writer) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		_, _ = fmt.Fprint(prompt, "Password: ")
		secret, err := term.ReadPassword(fd)
		_, _ = fmt.Fprintln(prompt)
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return string(secret), nil
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading password: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("missing password")
	}
	return line, nil
}

func tokenAction(ctx context.Context, cmd *cli.Command, application *app.App) error {
	token, err := application.Token(ctx)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(cmd.Root().Writer, token)
	return nil
}

func statusAction(_ context.Context, cmd *cli.Command, application *app.App) error {
	status := application.Status()
	w := cmd.Root().Writer

	_, _ = fmt.Fprintf(w, "session file:  %s\n", status.EnvFile)
	_, _ = fmt.Fprintf(w, "access token:  %s\n", status.State)
	_, _ = fmt.Fprintf(w, "refresh token: %s\n", presence(status.HasRefreshToken))
	if !status.ExpiresAt.IsZero() {
		_, _ = fmt.Fprintf(w, "expires:       %s\n", status.ExpiresAt.Local().Format(time.RFC3339))
	}
	return nil
}

func presence(ok bool) string {
	if ok {
		return "stored"
	}
	return "missing"
}

func whoamiAction(ctx context.Context, cmd *cli.Command, application *app.App) error {
	identity, err := application.Identify(ctx)
	if err != nil {
		return err
	}

	userID := identity.UserID
	if userID == "" {
		userID = "Unknown"
	}

	w := cmd.Root().Writer
	_, _ = fmt.Fprintf(w, "user:    %s\n", userID)
	_, _ = fmt.Fprintf(w, "role:    %s\n", identity.Role)
	_, _ = fmt.Fprintf(w, "expires: in %s\n", identity.ExpiresIn)
	return nil
}

func discoverAction(ctx context.Context, cmd *cli.Command, application *app.App) error {
	if err := application.Discover(ctx); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(cmd.Root().Writer, "API reachable, session accepted")
	return nil
}
