package main

import (
	"bufio"
	"fmt"
	"strings"
	"text/tabwriter"

	"beneficiary-data/internal/client"

	"github.com/spf13/cobra"
)

func newLoginCmd(g *globals) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and save the session token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if email == "" {
				return fmt.Errorf("--email is required")
			}
			if password == "" {
				fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("failed to read password: %w", err)
				}
				password = strings.TrimRight(line, "\r\n")
			}
			c := client.New(g.server, g.log)
			sess, err := c.Login(cmd.Context(), email, password)
			if err != nil {
				return explain(err)
			}
			if err := saveToken(sess.Token); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s until %s\n", sess.Email, sess.ExpiresAt.Local().Format("2006-01-02 15:04"))
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "password (prompted when omitted)")
	return cmd
}

func newTeamsCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "teams",
		Short: "List your teams",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := g.client()
			if err != nil {
				return err
			}
			teams, err := c.Teams(cmd.Context())
			if err != nil {
				return explain(err)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TEAM ID\tNAME\tROLE\tSTATUS")
			for _, t := range teams {
				status := "active"
				if t.Member.Pending {
					status = "invited"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", t.Team.TeamID, t.Team.Name, t.Member.Role, status)
			}
			return tw.Flush()
		},
	}
}
