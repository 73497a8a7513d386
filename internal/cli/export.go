package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"inventoryrecord/internal/export"
	"inventoryrecord/pkg/domain"
)

func addExport(topLevel *cobra.Command, a *app) {
	var id, output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write entries as CSV.",
		Long:  "Write every entry, or the single entry selected with --id, as CSV to stdout or a file.",
		Example: `
inventory-record export --output all_data.csv
inventory-record export --id 1712345678901
`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, entries, err := a.loadEntries(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			w := export.NewWriter(cfg.Quoting)
			write := func(out io.Writer) error { return w.WriteCollection(out, entries) }
			if id != "" {
				entry, ok := domain.FindEntry(entries, id)
				if !ok {
					return domain.NotFoundError{ID: id}
				}
				write = func(out io.Writer) error { return w.WriteEntry(out, entry) }
			}
			if output == "" || output == "-" {
				return write(cmd.OutOrStdout())
			}
			return writeFile(output, write)
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "Export only the entry with this id.")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout).")
	topLevel.AddCommand(cmd)
}

func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	if err := write(f); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
