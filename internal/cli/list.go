package cli

import (
	"fmt"
	"os"

	"github.com/exitravels/backoffice/internal/viewmodel"
	"github.com/spf13/cobra"
)

// ViewOptions are the list filters shared by list and export.
type ViewOptions struct {
	Query string
	From  string
	To    string
	Sort  string
	Order string
}

// AddViewArgs registers the filter and sort flags.
func AddViewArgs(cmd *cobra.Command, o *ViewOptions) {
	cmd.Flags().StringVarP(&o.Query, "query", "q", "", "Search text (name, email, phone, city).")
	cmd.Flags().StringVar(&o.From, "from", "", `First day included, example: --from="2025-03-01".`)
	cmd.Flags().StringVar(&o.To, "to", "", `Last day included, example: --to="2025-03-31".`)
	cmd.Flags().StringVar(&o.Sort, "sort", "", "Sort key: date, status, tripType, destination, client.")
	cmd.Flags().StringVar(&o.Order, "order", "", "Sort order: asc or desc.")
}

// Parse validates the flags.
func (o ViewOptions) Parse() (viewmodel.Filters, viewmodel.Sort, error) {
	f, err := viewmodel.ParseFilters(o.Query, o.From, o.To)
	if err != nil {
		return viewmodel.Filters{}, viewmodel.Sort{}, err
	}
	s, err := viewmodel.ParseSort(o.Sort, o.Order)
	if err != nil {
		return viewmodel.Filters{}, viewmodel.Sort{}, err
	}
	return f, s, nil
}

func addList(topLevel *cobra.Command, opts func() Options) {
	vo := &ViewOptions{}
	var trash, messages bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List reservations or contact messages.",
		Example: `
exitctl list
exitctl list -q martin --sort destination --order asc
exitctl list --messages --trash
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

			out := cmd.OutOrStdout()
			if messages {
				p, err := loadMessages(ctx, st.messages)
				if err != nil {
					return err
				}
				if trash {
					printMessages(out, "Corbeille (messages)", p.Deleted, loc)
					return nil
				}
				dir := viewmodel.Desc
				if sort.Direction == viewmodel.Asc {
					dir = viewmodel.Asc
				}
				view := viewmodel.ComputeMessageView(p.Active, viewmodel.MessageFilters{Filters: f}, dir, env(loc))
				printMessages(out, "Messages", view.Items, loc)
				return nil
			}

			p, err := loadReservations(ctx, st.reservations)
			if err != nil {
				return err
			}
			if trash {
				printReservations(out, "Corbeille (réservations)", p.Deleted, loc)
				return nil
			}
			view := viewmodel.ComputeView(p.Active, f, sort, env(loc))
			printReservations(out, "Réservations", view.Items, loc)
			return nil
		},
	}

	AddViewArgs(cmd, vo)
	cmd.Flags().BoolVar(&trash, "trash", false, "Show soft-deleted records instead.")
	cmd.Flags().BoolVar(&messages, "messages", false, "List contact messages instead of reservations.")

	topLevel.AddCommand(cmd)
}

func addStats(topLevel *cobra.Command, opts func() Options) {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show the dashboard counters.",
		RunE: func(cmd *cobra.Command, args []string) error {
			o := opts()
			loc, err := o.Location()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			st, err := openStore(ctx, o)
			if err != nil {
				return err
			}
			defer st.Close()

			res, err := loadReservations(ctx, st.reservations)
			if err != nil {
				return err
			}
			msg, err := loadMessages(ctx, st.messages)
			if err != nil {
				// Reservations stand on their own.
				fmt.Fprintln(os.Stderr, err)
			}
			e := env(loc)
			mv := viewmodel.ComputeMessageView(msg.Active, viewmodel.MessageFilters{}, viewmodel.Desc, e)
			printStats(cmd.OutOrStdout(), viewmodel.ComputeStats(res.Active, e), mv.Stats.Unread)
			return nil
		},
	}
	topLevel.AddCommand(cmd)
}
