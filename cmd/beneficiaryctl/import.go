package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"

	"beneficiary-data/internal/mapping"
	"beneficiary-data/internal/service"

	"github.com/spf13/cobra"
)

func newImportCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Preview or run a spreadsheet import",
	}
	cmd.AddCommand(newImportPreviewCmd(g), newImportRunCmd(g))
	return cmd
}

func newImportPreviewCmd(g *globals) *cobra.Command {
	var sheet string
	cmd := &cobra.Command{
		Use:   "preview <file>",
		Short: "Show sheets, headers and suggested field mappings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := g.requireTeam(); err != nil {
				return err
			}
			c, err := g.client()
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			p, err := c.PreviewImport(cmd.Context(), g.team, filepath.Base(args[0]), bytes.NewReader(data), sheet)
			if err != nil {
				return explain(err)
			}
			printPreview(cmd, p)
			return nil
		},
	}
	cmd.Flags().StringVar(&sheet, "sheet", "", "sheet to read (default: the first)")
	return cmd
}

func printPreview(cmd *cobra.Command, p *service.ImportPreview) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Sheets: %s\n", strings.Join(p.Sheets, ", "))
	fmt.Fprintf(out, "Reading %q: %d data rows\n\n", p.Sheet, p.RowCount)

	suggested := make(map[string]mapping.Suggestion, len(p.Suggestions))
	for _, s := range p.Suggestions {
		suggested[s.Header] = s
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CELL\tHEADER\tSUGGESTED FIELD")
	for _, d := range p.Descriptors {
		field := "-"
		if s, ok := suggested[d.Header]; ok {
			field = s.FieldKey
			if !s.Exact {
				field += " (approximate)"
			}
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", d.Cell, d.Header, field)
	}
	tw.Flush()

	if len(p.DuplicateHeaders) > 0 {
		fmt.Fprintf(out, "\nWarning: repeated headers keep only their last column: %s\n", strings.Join(p.DuplicateHeaders, ", "))
	}
}

func newImportRunCmd(g *globals) *cobra.Command {
	var (
		sheet     string
		auto      bool
		exactOnly bool
		maps      []string
	)
	cmd := &cobra.Command{
		Use:   "run <file>",
		Short: "Import a spreadsheet into the team's list",
		Long: "Import a spreadsheet. Columns are mapped with --map Header=field; " +
			"--auto adds the suggested mappings for the remaining columns.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := g.requireTeam(); err != nil {
				return err
			}
			c, err := g.client()
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			name := filepath.Base(args[0])

			p, err := c.PreviewImport(cmd.Context(), g.team, name, bytes.NewReader(data), sheet)
			if err != nil {
				return explain(err)
			}
			m, err := buildMapping(p, maps, auto, exactOnly)
			if err != nil {
				return err
			}
			if m.Len() == 0 {
				return fmt.Errorf("no columns mapped: use --map Header=field or --auto")
			}

			res, err := c.Import(cmd.Context(), g.team, name, bytes.NewReader(data), p.Sheet, m.Pairs())
			if err != nil {
				return explain(err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Imported %d records, skipped %d rows\n", res.Imported, res.Skipped)
			for _, re := range res.RowErrors {
				fmt.Fprintf(out, "  row %d, %s: %s\n", re.Row, re.Header, re.Message)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&sheet, "sheet", "", "sheet to read (default: the first)")
	cmd.Flags().BoolVar(&auto, "auto", false, "apply suggested mappings to unmapped columns")
	cmd.Flags().BoolVar(&exactOnly, "exact-only", false, "with --auto, apply only exact suggestions")
	cmd.Flags().StringArrayVar(&maps, "map", nil, "map a header to a field, as Header=field (repeatable)")
	return cmd
}

// buildMapping applies the manual --map pairs first so suggestions never
// override them.
func buildMapping(p *service.ImportPreview, maps []string, auto, exactOnly bool) (*mapping.Mapping, error) {
	headers := make(map[string]bool, len(p.Headers))
	for _, h := range p.Headers {
		headers[h] = true
	}
	m := mapping.New()
	for _, kv := range maps {
		header, field, ok := strings.Cut(kv, "=")
		header, field = strings.TrimSpace(header), strings.TrimSpace(field)
		if !ok || header == "" || field == "" {
			return nil, fmt.Errorf("invalid --map %q: want Header=field", kv)
		}
		if !headers[header] {
			return nil, fmt.Errorf("header %q is not in sheet %q (have: %s)", header, p.Sheet, strings.Join(sortedKeys(headers), ", "))
		}
		if err := m.Assign(header, field); err != nil {
			return nil, err
		}
	}
	if auto {
		m.Apply(p.Suggestions, exactOnly)
	}
	return m, nil
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
