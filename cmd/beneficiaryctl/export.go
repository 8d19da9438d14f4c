package main

import (
	"bytes"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newExportCmd(g *globals) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Download the team's list as an xlsx workbook",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := g.requireTeam(); err != nil {
				return err
			}
			c, err := g.client()
			if err != nil {
				return err
			}
			var buf bytes.Buffer
			name, err := c.Export(cmd.Context(), g.team, &buf)
			if err != nil {
				return explain(err)
			}
			if out == "" {
				out = name
			}
			if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d bytes)\n", out, buf.Len())
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (default: server-suggested name)")
	return cmd
}

func newDuplicatesCmd(g *globals) *cobra.Command {
	var remove, yes bool
	cmd := &cobra.Command{
		Use:   "duplicates",
		Short: "List, and optionally remove, duplicate records",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := g.requireTeam(); err != nil {
				return err
			}
			c, err := g.client()
			if err != nil {
				return err
			}
			report, err := c.Duplicates(cmd.Context(), g.team)
			if err != nil {
				return explain(err)
			}
			w := cmd.OutOrStdout()
			if len(report.Groups) == 0 {
				fmt.Fprintln(w, "No duplicates found")
				return nil
			}
			tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tKEEP\tREMOVE")
			for _, grp := range report.Groups {
				for i, r := range grp.Remove {
					name := grp.Name
					keep := grp.Keep.BeneficiaryID
					if i > 0 {
						name, keep = "", ""
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\n", name, keep, r.BeneficiaryID)
				}
			}
			tw.Flush()
			fmt.Fprintf(w, "%d groups, %d records would be removed\n", len(report.Groups), report.CandidateCount)

			if !remove {
				return nil
			}
			if !yes {
				return fmt.Errorf("refusing to remove %d records without --yes", report.CandidateCount)
			}
			res, err := c.RemoveDuplicates(cmd.Context(), g.team)
			if err != nil {
				return explain(err)
			}
			if res.Outcome == nil {
				return fmt.Errorf("server did not report a removal outcome")
			}
			fmt.Fprintf(w, "Removed %d of %d records\n", res.Outcome.Succeeded, res.Outcome.Requested)
			return nil
		},
	}
	cmd.Flags().BoolVar(&remove, "remove", false, "delete the duplicate records")
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm removal")
	return cmd
}
