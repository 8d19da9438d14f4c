// Command beneficiaryctl drives imports, exports and duplicate cleanup
// against a beneficiary-data server.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"beneficiary-data/internal/client"
	"beneficiary-data/internal/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type globals struct {
	server string
	token  string
	team   string
	debug  bool
	log    *zap.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:           "beneficiaryctl",
		Short:         "Import, export and clean up beneficiary lists",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level := "warn"
			if g.debug {
				level = "debug"
			}
			log, err := logger.NewLogger(level, "console", "beneficiaryctl")
			if err != nil {
				return err
			}
			g.log = log
			return nil
		},
	}
	root.PersistentFlags().StringVar(&g.server, "server", envOr("BENEFICIARY_SERVER", "http://localhost:8080"), "API base URL")
	root.PersistentFlags().StringVar(&g.token, "token", os.Getenv("BENEFICIARY_TOKEN"), "session token (default: the one saved by login)")
	root.PersistentFlags().StringVar(&g.team, "team", os.Getenv("BENEFICIARY_TEAM"), "team id")
	root.PersistentFlags().BoolVar(&g.debug, "debug", false, "log API calls")

	root.AddCommand(
		newLoginCmd(g),
		newTeamsCmd(g),
		newImportCmd(g),
		newExportCmd(g),
		newDuplicatesCmd(g),
	)
	return root
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// tokenFile is where login keeps the session token.
func tokenFile() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "beneficiaryctl", "token"), nil
}

func saveToken(token string) error {
	path, err := tokenFile()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(token+"\n"), 0o600)
}

func loadToken() string {
	path, err := tokenFile()
	if err != nil {
		return ""
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}

// client returns an authenticated API client.
func (g *globals) client() (*client.Client, error) {
	c := client.New(g.server, g.log)
	token := g.token
	if token == "" {
		token = loadToken()
	}
	if token == "" {
		return nil, errors.New("not signed in: run beneficiaryctl login first")
	}
	c.SetToken(token)
	return c, nil
}

func (g *globals) requireTeam() error {
	if g.team == "" {
		return errors.New("--team is required (see beneficiaryctl teams)")
	}
	return nil
}

// explain turns API errors into one readable message.
func explain(err error) error {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Status == 401 {
			return errors.New("session expired: run beneficiaryctl login again")
		}
		if len(apiErr.Fields) > 0 {
			parts := make([]string, 0, len(apiErr.Fields))
			for k, v := range apiErr.Fields {
				parts = append(parts, k+": "+v)
			}
			return fmt.Errorf("%s (%s)", apiErr.Message, strings.Join(parts, "; "))
		}
		return errors.New(apiErr.Message)
	}
	return err
}
