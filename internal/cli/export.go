package cli

import (
	"bytes"
	"errors"
	"path/filepath"
	"time"

	"github.com/exitravels/backoffice/internal/export"
	"github.com/exitravels/backoffice/internal/storage"
	"github.com/exitravels/backoffice/internal/viewmodel"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func env(loc *time.Location) viewmodel.Env {
	return viewmodel.Env{Now: time.Now(), Location: loc}
}

func addExport(topLevel *cobra.Command, opts func() Options) {
	vo := &ViewOptions{}
	var out, outDir string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the filtered reservation list as CSV.",
		Example: `
exitctl export
exitctl export --from 2025-03-01 --to 2025-03-31 -o mars.csv
exitctl export -o - > reservations.csv
exitctl export --dir ./exports
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			o := opts()
			loc, err := o.Location()
			if err != nil {
				return err
			}
			f, sort, err := vo.Parse()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			st, err := openStore(ctx, o)
			if err != nil {
				return err
			}
			defer st.Close()

			p, err := loadReservations(ctx, st.reservations)
			if err != nil {
				return err
			}
			view := viewmodel.ComputeView(p.Active, f, sort, env(loc))

			var buf bytes.Buffer
			if err := export.WriteReservationsCSV(&buf, view.Items, loc); err != nil {
				if errors.Is(err, export.ErrEmpty) {
					return errors.New("nothing to export: the filtered list is empty")
				}
				return err
			}
			if out == "-" {
				_, err := cmd.OutOrStdout().Write(buf.Bytes())
				return err
			}
			dir, name := outDir, export.FileName(time.Now())
			if out != "" {
				dir, name = filepath.Split(out)
			}
			saved, err := storage.NewLocalStorage(dir).Save(ctx, name, &buf)
			if err != nil {
				return err
			}
			_, _ = color.New(color.FgGreen).Fprintf(cmd.ErrOrStderr(), "%d reservation(s) exported to %s\n", len(view.Items), saved)
			return nil
		},
	}

	AddViewArgs(cmd, vo)
	cmd.Flags().StringVarP(&out, "output", "o", "", `Output file; "-" writes to stdout. Defaults to reservations_exitravels_<date>.csv.`)
	cmd.Flags().StringVar(&outDir, "dir", "", "Directory for the default file name; ignored with -o.")

	topLevel.AddCommand(cmd)
}
