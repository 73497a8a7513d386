package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"inventoryrecord/pkg/domain"
)

func addList(topLevel *cobra.Command, a *app) {
	asJSON := false
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print all entries.",
		Example: `
inventory-record list
inventory-record list --json --driver sqlite
`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, entries, err := a.loadEntries(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), entries)
			}
			out := cmd.OutOrStdout()
			if out == os.Stdout {
				out = color.Output
			}
			printTable(out, entries)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print entries as JSON.")
	topLevel.AddCommand(cmd)
}

func printJSON(w io.Writer, entries []domain.Entry) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]any{"entries": entries})
}

var listColumns = []string{domain.FieldID, domain.FieldName, domain.FieldEmail, domain.FieldCompany, domain.FieldStatus}

func printTable(w io.Writer, entries []domain.Entry) {
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = 40

	bold := color.New(color.Bold).SprintFunc()
	header := make([]any, len(listColumns))
	for i, c := range listColumns {
		header[i] = bold(domain.Label(c))
	}
	tbl.AddRow(header...)
	for _, e := range entries {
		row := make([]any, len(listColumns))
		for i, c := range listColumns {
			row[i] = e.Get(c)
		}
		tbl.AddRow(row...)
	}
	_, _ = fmt.Fprintln(w, tbl)
}
