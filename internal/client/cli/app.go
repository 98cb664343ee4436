package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/dmitrijs2005/productkeeper/internal/client/client"
	"github.com/dmitrijs2005/productkeeper/internal/client/config"
)

type App struct {
	config   *config.Config
	client   client.Client
	userName string
	reader   *bufio.Reader
	out      io.Writer
}

func NewApp(c *config.Config) (*App, error) {
	if c.ServerURL == "" {
		return nil, errors.New("server url is empty")
	}

	apiClient := client.NewHTTPClient(c.ServerURL, c.RequestTimeout)

	return &App{config: c, client: apiClient, reader: bufio.NewReader(os.Stdin), out: os.Stdout}, nil
}

func (a *App) getStatus() string {
	if a.userName == "" {
		return ""
	}
	return fmt.Sprintf("(%s)", a.userName)
}

func (a *App) isLoggedIn() bool {
	return a.userName != ""
}

// Run starts the REPL and logs out on exit if a session is open.
func (a *App) Run(ctx context.Context) {
	log.Println("Welcome to productkeeper CLI (type 'help' for commands)")

	runREPL(ctx, a, a.getStatus, a.reader)

	if a.isLoggedIn() {
		_ = a.Logout(ctx)
	}
}

// report prints err for the user. An expired or revoked token also ends
// the local session.
func (a *App) report(err error) {
	if errors.Is(err, client.ErrUnauthorized) && a.isLoggedIn() {
		a.userName = ""
		log.Printf("Session is no longer valid, please log in again")
	}

	var apiErr *client.APIError
	if errors.As(err, &apiErr) && len(apiErr.Fields) > 0 {
		log.Printf("Error: %s", apiErr.Message)
		for field, msgs := range apiErr.Fields {
			for _, m := range msgs {
				fmt.Fprintf(a.out, "  %s: %s\n", field, m)
			}
		}
		return
	}

	log.Printf("Error: %s", err.Error())
}
