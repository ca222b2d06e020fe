package cli

import (
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/exitravels/backoffice/internal/logging"
	"github.com/exitravels/backoffice/internal/model"
	"github.com/exitravels/backoffice/internal/notify"
	"github.com/exitravels/backoffice/internal/stream"
	"github.com/exitravels/backoffice/internal/viewmodel"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// liveView is the stream.Sink behind exitctl watch: it reprints the active
// lists on every snapshot and announces arrivals through the dispatcher.
type liveView struct {
	mu         sync.Mutex
	w          io.Writer
	loc        *time.Location
	limit      int
	dispatcher *notify.Dispatcher
	res        *notify.ArrivalTrigger
	msg        *notify.ArrivalTrigger
}

func newLiveView(w io.Writer, loc *time.Location, limit int, d *notify.Dispatcher) *liveView {
	return &liveView{
		w:          w,
		loc:        loc,
		limit:      limit,
		dispatcher: d,
		res:        notify.NewArrivalTrigger(),
		msg:        notify.NewArrivalTrigger(),
	}
}

func (v *liveView) Reservations(p stream.Partition[model.Reservation]) {
	v.mu.Lock()
	defer v.mu.Unlock()
	view := viewmodel.ComputeView(p.Active, viewmodel.Filters{}, viewmodel.DefaultSort, env(v.loc))
	items := view.Items
	if v.limit > 0 && len(items) > v.limit {
		items = items[:v.limit]
	}
	printReservations(v.w, "Réservations", items, v.loc)
	if v.res.Observe(len(p.Active)) {
		v.dispatcher.Arrival(model.CollectionReservations)
	}
}

func (v *liveView) Messages(p stream.Partition[model.Message]) {
	v.mu.Lock()
	defer v.mu.Unlock()
	items := p.Active
	if v.limit > 0 && len(items) > v.limit {
		items = items[:v.limit]
	}
	printMessages(v.w, "Messages", items, v.loc)
	if v.msg.Observe(len(p.Active)) {
		v.dispatcher.Arrival(model.CollectionMessages)
	}
}

func (v *liveView) Failed(c model.Collection, err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	_, _ = color.New(color.FgRed).Fprintf(v.w, "%s: subscription ended: %v\n", c, err)
}

func addWatch(topLevel *cobra.Command, opts func() Options) {
	var limit int
	var quiet bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow both collections live; rings the bell on arrivals.",
		RunE: func(cmd *cobra.Command, args []string) error {
			o := opts()
			loc, err := o.Location()
			if err != nil {
				return err
			}
			slog.SetDefault(logging.New(cmd.ErrOrStderr(), logging.Text, "INFO"))

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			st, err := openStore(ctx, o)
			if err != nil {
				return err
			}
			defer st.Close()

			dopts := []notify.Option{
				notify.WithPermission(notify.Granted),
				notify.WithSender("log", notify.LogSender{}),
			}
			if !quiet {
				dopts = append(dopts, notify.WithCue(notify.Bell{W: cmd.OutOrStdout()}))
			}
			d := notify.NewDispatcher(dopts...)

			stream.NewAdapter(st.reservations, st.messages).Run(ctx, newLiveView(cmd.OutOrStdout(), loc, limit, d))
			d.Wait()
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "Rows shown per collection; 0 shows all.")
	cmd.Flags().BoolVar(&quiet, "quiet", false, "Do not ring the terminal bell.")

	topLevel.AddCommand(cmd)
}
