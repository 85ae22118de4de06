package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/erazemk/fixitforward/internal/catalog"
	"github.com/erazemk/fixitforward/internal/events"
	"github.com/erazemk/fixitforward/internal/model"
	"github.com/erazemk/fixitforward/internal/navigation"
	"github.com/erazemk/fixitforward/internal/negotiation"
	"github.com/erazemk/fixitforward/internal/seed"
	"github.com/erazemk/fixitforward/internal/store/memory"
)

func newDemoCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Walk one repair through the marketplace in memory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(cmd.Context(), cmd.OutOrStdout(), app)
		},
	}
}

// runDemo seeds the demo catalog, haggles over the first listing and
// checks it out, printing every screen change.
func runDemo(ctx context.Context, out io.Writer, app *App) error {
	rec := &events.Recorder{}
	items := catalog.New(memory.NewItems(), catalog.WithPublisher(rec), catalog.WithLogger(app.log))
	chat := negotiation.New(memory.NewThreads(), items, negotiation.WithPublisher(rec), negotiation.WithLogger(app.log))
	ctrl := navigation.New(items, chat, navigation.WithPublisher(rec), navigation.WithLogger(app.log))

	if _, err := seed.Load(ctx, items, seed.Demo); err != nil {
		return err
	}
	listed, err := items.ListItems(ctx, catalog.Filter{})
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "Catalog:")
	for _, item := range listed {
		fmt.Fprintf(out, "  %-14s %-11s %-12s %s\n", item.Title, item.Fee, item.Status, item.Location)
	}
	fmt.Fprintln(out)

	target := listed[0]
	dispatch := func(ev navigation.Event) error {
		t, err := ctrl.Dispatch(ctx, ev)
		if err != nil {
			return fmt.Errorf("%s: %w", ev.Name(), err)
		}
		printTransition(out, t)
		return nil
	}

	steps := []navigation.Event{
		navigation.LoginSubmitted{Credentials: model.Credentials{Email: "demo@fixit.com", Password: "demo"}},
		navigation.OpenItem{ItemID: target.ID},
		navigation.OpenChat{},
	}
	for _, ev := range steps {
		if err := dispatch(ev); err != nil {
			return err
		}
	}

	for _, line := range negotiation.DemoTranscript {
		if _, err := chat.PostMessage(ctx, target.ID, line.Text, line.Sender); err != nil {
			return err
		}
		fmt.Fprintf(out, "  [%s] %s\n", line.Sender, line.Text)
	}
	amount, err := chat.ComposeOffer(ctx, target.ID, "350000")
	if err != nil {
		return err
	}
	if err := chat.ProposePending(ctx, target.ID); err != nil {
		return err
	}
	fmt.Fprintf(out, "  offer proposed: %s\n", amount)

	steps = []navigation.Event{
		navigation.ConfirmOffer{},
		navigation.ConfirmCheckout{Payment: navigation.PaymentCOD},
		navigation.ReturnHome{},
		navigation.Logout{},
	}
	for _, ev := range steps {
		if err := dispatch(ev); err != nil {
			return err
		}
	}

	final, err := items.GetItem(ctx, target.ID)
	if err != nil {
		return err
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "%s is now %s at %s (%d events published)\n", final.Title, final.Status, final.Fee, len(rec.Events()))
	return nil
}

func printTransition(out io.Writer, t navigation.Transition) {
	fmt.Fprintf(out, "%-9s -> %-9s %s", t.From, t.To, t.Event)
	if t.Item != nil {
		fmt.Fprintf(out, "  %s", t.Item.Title)
	}
	if t.Amount != "" {
		fmt.Fprintf(out, "  %s", t.Amount)
	}
	if t.Payment != "" {
		fmt.Fprintf(out, "  %s", t.Payment)
	}
	fmt.Fprintln(out)
}
