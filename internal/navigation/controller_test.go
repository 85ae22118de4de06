package navigation

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/fixitforward/internal/catalog"
	"github.com/erazemk/fixitforward/internal/events"
	"github.com/erazemk/fixitforward/internal/model"
	"github.com/erazemk/fixitforward/internal/negotiation"
	"github.com/erazemk/fixitforward/internal/store/memory"
)

type env struct {
	catalog *catalog.Catalog
	chat    *negotiation.Engine
	rec     *events.Recorder
}

func newEnv(t *testing.T) env {
	t.Helper()
	c := catalog.New(memory.NewItems())
	return env{
		catalog: c,
		chat:    negotiation.New(memory.NewThreads(), c),
		rec:     &events.Recorder{},
	}
}

// withState starts the controller on s instead of the login screen.
func withState(s State) Option {
	return func(c *Controller) { c.state = s }
}

func (e env) controller(s State, opts ...Option) *Controller {
	opts = append([]Option{withState(s), WithPublisher(e.rec)}, opts...)
	return New(e.catalog, e.chat, opts...)
}

func (e env) item(t *testing.T, title, fee string) *model.Item {
	t.Helper()
	item, err := e.catalog.CreateItem(context.Background(), model.ItemDraft{Title: title, Fee: fee})
	require.NoError(t, err)
	return item
}

var (
	goodLogin  = LoginSubmitted{Credentials: model.Credentials{Email: "ana@mail.com", Password: "secret"}}
	goodSignup = SignupSubmitted{Form: model.SignupForm{
		Username: "ana", Email: "ana@mail.com", Phone: "0812-345", Password: "pw", RePassword: "pw",
	}}
)

func allEvents(itemID string) []Event {
	return []Event{
		goodLogin, GoSignup{}, goodSignup, Back{}, OpenItem{ItemID: itemID}, OpenUpload{},
		SubmitUpload{Draft: model.ItemDraft{Title: "Lamp", Fee: "1000"}},
		FixIt{}, OpenChat{}, MarkFixed{}, ConfirmOffer{}, ConfirmCheckout{}, ReturnHome{}, Logout{},
	}
}

func TestTransitionTable(t *testing.T) {
	want := map[Screen]map[string]Screen{
		Login:    {"login": Home, "goSignup": Signup, "logout": Login},
		Signup:   {"signup": Home, "back": Login, "logout": Login},
		Home:     {"openItem": Detail, "openUpload": Upload, "logout": Login},
		Upload:   {"submit": Home, "back": Home, "logout": Login},
		Detail:   {"back": Home, "fixIt": Checkout, "chat": Chat, "logout": Login},
		Chat:     {"back": Detail, "logout": Login},
		Checkout: {"back": Detail, "fixItConfirmed": Success, "logout": Login},
		Success:  {"returnHome": Home, "logout": Login},
	}

	for _, screen := range Screens {
		for _, ev := range allEvents("") {
			e := newEnv(t)
			item := e.item(t, "Black Chair", "500000")
			if o, ok := ev.(OpenItem); ok {
				o.ItemID = item.ID
				ev = o
			}
			start := State{Screen: screen}
			if screen.NeedsItem() {
				start.ActiveItemID = item.ID
			}
			c := e.controller(start)

			tr, err := c.Dispatch(context.Background(), ev)
			target, accepted := want[screen][ev.Name()]
			if !accepted {
				if err == nil {
					t.Errorf("%s on %s: accepted, moved to %s", ev.Name(), screen, tr.To)
				}
				assert.Equal(t, start, c.State(), "%s on %s must not move", ev.Name(), screen)
				continue
			}
			if err != nil {
				t.Errorf("%s on %s: %v", ev.Name(), screen, err)
				continue
			}
			assert.Equal(t, target, tr.To, "%s on %s", ev.Name(), screen)
			assert.Equal(t, target, c.State().Screen)
			if target.NeedsItem() {
				assert.Equal(t, item.ID, c.State().ActiveItemID)
			} else {
				assert.Empty(t, c.State().ActiveItemID, "%s on %s keeps an item", ev.Name(), screen)
			}
		}
	}
}

func TestUnacceptedEventIsTransitionError(t *testing.T) {
	e := newEnv(t)
	c := e.controller(State{Screen: Home})
	_, err := c.Dispatch(context.Background(), ReturnHome{})
	require.ErrorIs(t, err, model.ErrInvalidTransition)
	assert.Empty(t, e.rec.Events())
}

func TestLoginValidation(t *testing.T) {
	e := newEnv(t)
	c := e.controller(State{Screen: Login})
	ctx := context.Background()

	for _, creds := range []model.Credentials{
		{Email: "", Password: "x"},
		{Email: "ana@mail.com", Password: ""},
		{Email: "ana@mail.org", Password: "x"},
	} {
		_, err := c.Dispatch(ctx, LoginSubmitted{Credentials: creds})
		require.ErrorIs(t, err, model.ErrValidation)
		assert.Equal(t, Login, c.State().Screen)
	}

	_, err := c.Dispatch(ctx, goodLogin)
	require.NoError(t, err)
	assert.Equal(t, Home, c.State().Screen)
}

type recorder struct {
	mu    sync.Mutex
	forms []model.SignupForm
}

func (r *recorder) RecordSignup(_ context.Context, f model.SignupForm) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.forms = append(r.forms, f)
	return nil
}

func TestSignupRecordsAccount(t *testing.T) {
	e := newEnv(t)
	accounts := &recorder{}
	c := e.controller(State{Screen: Signup}, WithAccounts(accounts))
	ctx := context.Background()

	bad := goodSignup
	bad.Form.RePassword = "other"
	_, err := c.Dispatch(ctx, bad)
	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "re_password", verr.Field)
	assert.Empty(t, accounts.forms)

	_, err = c.Dispatch(ctx, goodSignup)
	require.NoError(t, err)
	require.Len(t, accounts.forms, 1)
	assert.Equal(t, "0812345", accounts.forms[0].Phone)
}

func TestOpenUnknownItem(t *testing.T) {
	e := newEnv(t)
	c := e.controller(State{Screen: Home})

	_, err := c.Dispatch(context.Background(), OpenItem{ItemID: "missing"})
	require.ErrorIs(t, err, model.ErrNotFound)
	assert.Equal(t, State{Screen: Home}, c.State())

	_, err = c.Dispatch(context.Background(), OpenItem{})
	require.ErrorIs(t, err, model.ErrValidation)
}

func TestFixItNeedsAvailableItem(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	item := e.item(t, "Wood Table", "300000")
	_, err := e.catalog.UpdateStatus(ctx, item.ID, model.StatusInProgress)
	require.NoError(t, err)

	c := e.controller(State{Screen: Detail, ActiveItemID: item.ID})
	_, err = c.Dispatch(ctx, FixIt{})
	require.ErrorIs(t, err, model.ErrInvalidTransition)
	assert.Equal(t, Detail, c.State().Screen)

	tr, err := c.Dispatch(ctx, MarkFixed{})
	require.NoError(t, err)
	assert.Equal(t, Detail, tr.To)
	assert.Equal(t, model.StatusFixed, tr.Item.Status)

	_, err = c.Dispatch(ctx, MarkFixed{})
	require.ErrorIs(t, err, model.ErrInvalidTransition)
}

func TestActiveItemIsNeverStale(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	item := e.item(t, "Black Chair", "500000")

	c := e.controller(State{Screen: Home})
	_, err := c.Dispatch(ctx, OpenItem{ItemID: item.ID})
	require.NoError(t, err)

	_, err = e.catalog.ApplyFee(ctx, item.ID, "Rp450.000")
	require.NoError(t, err)

	active, err := c.ActiveItem(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Rp450.000", active.Fee)

	_, err = c.Dispatch(ctx, Back{})
	require.NoError(t, err)
	_, err = c.ActiveItem(ctx)
	require.ErrorIs(t, err, model.ErrNotFound)

	other := e.item(t, "Wood Table", "300000")
	_, err = c.Dispatch(ctx, OpenItem{ItemID: other.ID})
	require.NoError(t, err)
	assert.Equal(t, other.ID, c.State().ActiveItemID)
	active, err = c.ActiveItem(ctx)
	require.NoError(t, err)
	assert.Equal(t, other.ID, active.ID)
	assert.Equal(t, "Wood Table", active.Title)
}

func TestPointerEvents(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	item := e.item(t, "Black Chair", "500000")
	c := e.controller(State{Screen: Login})

	_, err := c.Dispatch(ctx, &goodLogin)
	require.NoError(t, err)
	_, err = c.Dispatch(ctx, &OpenItem{ItemID: item.ID})
	require.NoError(t, err)
	assert.Equal(t, State{Screen: Detail, ActiveItemID: item.ID}, c.State())

	_, err = c.Dispatch(ctx, &FixIt{})
	require.NoError(t, err)
	tr, err := c.Dispatch(ctx, &ConfirmCheckout{Payment: PaymentSPay})
	require.NoError(t, err)
	assert.Equal(t, Success, tr.To)
	assert.Equal(t, PaymentSPay, tr.Payment)

	_, err = c.Dispatch(ctx, &Logout{})
	require.NoError(t, err)
	assert.Equal(t, State{Screen: Login}, c.State())
}

// impostor claims the login event name without being a login form.
type impostor struct{}

func (impostor) Name() string { return "login" }

func TestMalformedEvents(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	c := e.controller(State{Screen: Login})

	var nilLogin *LoginSubmitted
	for _, ev := range []Event{nil, nilLogin, impostor{}} {
		var err error
		require.NotPanics(t, func() { _, err = c.Dispatch(ctx, ev) })
		require.ErrorIs(t, err, model.ErrValidation)
		assert.Equal(t, State{Screen: Login}, c.State())
	}
	assert.Empty(t, e.rec.Events())
}

func TestConfirmOfferWithoutAgreement(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	item := e.item(t, "Metal Kettle", "150000")

	c := e.controller(State{Screen: Chat, ActiveItemID: item.ID})
	_, err := c.Dispatch(ctx, ConfirmOffer{})
	require.ErrorIs(t, err, model.ErrNoPendingOffer)
	assert.Equal(t, Chat, c.State().Screen)
}

func TestConfirmOfferKeepsOfferWhenItemTaken(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	item := e.item(t, "Metal Kettle", "150000")
	require.NoError(t, e.chat.ProposeOffer(ctx, item.ID, "120000"))
	_, err := e.catalog.UpdateStatus(ctx, item.ID, model.StatusInProgress)
	require.NoError(t, err)

	c := e.controller(State{Screen: Chat, ActiveItemID: item.ID})
	_, err = c.Dispatch(ctx, ConfirmOffer{})
	require.ErrorIs(t, err, model.ErrInvalidTransition)

	th, err := e.chat.Thread(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "Rp120.000", th.AgreedOffer)
}

func TestCheckoutPaymentMethod(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	item := e.item(t, "Metal Kettle", "150000")

	c := e.controller(State{Screen: Checkout, ActiveItemID: item.ID})
	_, err := c.Dispatch(ctx, ConfirmCheckout{Payment: "Card"})
	require.ErrorIs(t, err, model.ErrValidation)

	tr, err := c.Dispatch(ctx, ConfirmCheckout{Payment: PaymentSPay})
	require.NoError(t, err)
	assert.Equal(t, PaymentSPay, tr.Payment)
	assert.Equal(t, "Rp150.000", tr.Amount)
}

func TestEndToEnd(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	c := e.controller(State{Screen: Login})

	step := func(ev Event, want Screen) Transition {
		t.Helper()
		tr, err := c.Dispatch(ctx, ev)
		require.NoError(t, err, ev.Name())
		require.Equal(t, want, tr.To, ev.Name())
		return tr
	}

	step(goodLogin, Home)
	step(OpenUpload{}, Upload)
	created := step(SubmitUpload{Draft: model.ItemDraft{
		Title: "Metal Kettle", Category: model.CategoryAppliances, Fee: "150000",
	}}, Home).Item
	require.NotNil(t, created)
	assert.Equal(t, "Rp150.000", created.Fee)

	items, err := e.catalog.ListItems(ctx, catalog.Filter{})
	require.NoError(t, err)
	require.NotEmpty(t, items)
	assert.Equal(t, created.ID, items[0].ID, "new item is listed first")

	step(OpenItem{ItemID: created.ID}, Detail)
	step(OpenChat{}, Chat)

	for _, line := range negotiation.DemoTranscript {
		_, err := e.chat.PostMessage(ctx, created.ID, line.Text, line.Sender)
		require.NoError(t, err)
	}
	require.NoError(t, e.chat.ProposeOffer(ctx, created.ID, "350000"))

	tr := step(ConfirmOffer{}, Checkout)
	assert.Equal(t, "Rp350.000", tr.Amount)
	assert.Equal(t, "Rp350.000", tr.Item.Fee)

	tr = step(ConfirmCheckout{Payment: PaymentCOD}, Success)
	assert.Equal(t, model.StatusInProgress, tr.Item.Status)
	assert.Equal(t, "Rp350.000", tr.Item.Fee)

	step(ReturnHome{}, Home)
	assert.Equal(t, State{Screen: Home}, c.State())

	got, err := e.catalog.GetItem(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusInProgress, got.Status)

	assert.Len(t, e.rec.Events(), 8)
	for _, ev := range e.rec.Events() {
		assert.Equal(t, events.Navigated, ev.Subject)
	}

	step(Logout{}, Login)
}

func TestConcurrentDispatch(t *testing.T) {
	e := newEnv(t)
	item := e.item(t, "Black Chair", "500000")
	c := e.controller(State{Screen: Home})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Dispatch(ctx, OpenItem{ItemID: item.ID})
			c.Dispatch(ctx, Back{})
		}()
	}
	wg.Wait()

	s := c.State()
	if s.Screen.NeedsItem() {
		assert.Equal(t, item.ID, s.ActiveItemID)
	} else {
		assert.Empty(t, s.ActiveItemID)
	}
}
