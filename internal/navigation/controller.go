package navigation

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"go.uber.org/zap"

	"github.com/erazemk/fixitforward/internal/events"
	"github.com/erazemk/fixitforward/internal/model"
	"github.com/erazemk/fixitforward/internal/validate"
)

// Catalog is the part of the item store the controller drives.
type Catalog interface {
	GetItem(ctx context.Context, id string) (*model.Item, error)
	CreateItem(ctx context.Context, draft model.ItemDraft) (*model.Item, error)
	UpdateStatus(ctx context.Context, id string, to model.Status) (*model.Item, error)
	ApplyFee(ctx context.Context, id, fee string) (*model.Item, error)
}

// Negotiator settles the agreed offer of an item's chat.
type Negotiator interface {
	Settle(ctx context.Context, itemID string, apply func(ctx context.Context, amount string) error) (string, error)
}

// AccountRecorder stores accounts created by a valid signup.
type AccountRecorder interface {
	RecordSignup(ctx context.Context, form model.SignupForm) error
}

// Transition describes one accepted event.
type Transition struct {
	From    Screen        `json:"from"`
	To      Screen        `json:"to"`
	Event   string        `json:"event"`
	ItemID  string        `json:"item_id,omitempty"`
	Item    *model.Item   `json:"item,omitempty"`
	Amount  string        `json:"amount,omitempty"`
	Payment PaymentMethod `json:"payment,omitempty"`
}

// Controller holds one session's screen. Events are applied one at a time;
// a rejected event leaves the state untouched.
type Controller struct {
	mu       sync.Mutex
	state    State
	catalog  Catalog
	chat     Negotiator
	accounts AccountRecorder
	pub      events.Publisher
	log      *zap.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithAccounts stores signups in r.
func WithAccounts(r AccountRecorder) Option {
	return func(c *Controller) { c.accounts = r }
}

// WithPublisher sets where transitions are announced.
func WithPublisher(p events.Publisher) Option {
	return func(c *Controller) { c.pub = p }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// New returns a controller on the login screen.
func New(catalog Catalog, chat Negotiator, opts ...Option) *Controller {
	c := &Controller{
		state:   State{Screen: Login},
		catalog: catalog,
		chat:    chat,
		pub:     events.Nop{},
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current screen.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ActiveItem resolves the active item by id, so callers always see the
// item's current fields.
func (c *Controller) ActiveItem(ctx context.Context) (*model.Item, error) {
	id := c.State().ActiveItemID
	if id == "" {
		return nil, fmt.Errorf("no active item: %w", model.ErrNotFound)
	}
	return c.catalog.GetItem(ctx, id)
}

// Dispatch applies ev to the current screen. An event the screen does not
// accept returns a TransitionError. Events may be passed by value or by
// pointer; a nil event is a validation error.
func (c *Controller) Dispatch(ctx context.Context, ev Event) (Transition, error) {
	if isNil(ev) {
		return Transition{}, model.Invalid("event", "required")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	from := c.state
	h, ok := table[from.Screen][ev.Name()]
	if !ok {
		if _, err := payload[Logout](ev); err != nil {
			return Transition{}, &model.TransitionError{From: string(from.Screen), To: ev.Name()}
		}
		h = logout
	}

	t := Transition{From: from.Screen, Event: ev.Name()}
	next, err := h(ctx, c, from, ev, &t)
	if err != nil {
		c.log.Debug("event rejected", zap.String("screen", string(from.Screen)), zap.String("event", ev.Name()), zap.Error(err))
		return Transition{}, err
	}

	c.state = next
	t.To = next.Screen
	t.ItemID = next.ActiveItemID

	c.log.Debug("navigated", zap.String("from", string(t.From)), zap.String("to", string(t.To)), zap.String("event", t.Event))
	attrs := []string{"from", string(t.From), "to", string(t.To), "event", t.Event}
	if err := c.pub.Publish(ctx, events.New(events.Navigated, t.ItemID, attrs...)); err != nil {
		c.log.Warn("publishing event failed", zap.String("subject", events.Navigated), zap.Error(err))
	}
	return t, nil
}

func isNil(ev Event) bool {
	if ev == nil {
		return true
	}
	v := reflect.ValueOf(ev)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

// payload returns ev as T, accepting a *T as well.
func payload[T Event](ev Event) (T, error) {
	switch e := any(ev).(type) {
	case T:
		return e, nil
	case *T:
		if e != nil {
			return *e, nil
		}
	}
	var zero T
	return zero, model.Invalid("event", fmt.Sprintf("unexpected event type %T", ev))
}

type handler func(ctx context.Context, c *Controller, s State, ev Event, t *Transition) (State, error)

// table lists, per screen, the events it accepts. Logout is accepted
// everywhere and is not listed.
var table = map[Screen]map[string]handler{
	Login: {
		"login":    login,
		"goSignup": to(Signup),
	},
	Signup: {
		"signup": signup,
		"back":   to(Login),
	},
	Home: {
		"openItem":   openItem,
		"openUpload": to(Upload),
	},
	Upload: {
		"submit": submitUpload,
		"back":   to(Home),
	},
	Detail: {
		"back":      to(Home),
		"fixIt":     fixIt,
		"chat":      stay(Chat),
		"markFixed": markFixed,
	},
	Chat: {
		"back":         stay(Detail),
		"confirmOffer": confirmOffer,
	},
	Checkout: {
		"back":           stay(Detail),
		"fixItConfirmed": confirmCheckout,
	},
	Success: {
		"returnHome": to(Home),
	},
}

// to moves to a screen without an item, dropping the active item.
func to(target Screen) handler {
	return func(context.Context, *Controller, State, Event, *Transition) (State, error) {
		return State{Screen: target}, nil
	}
}

// stay moves between item screens keeping the active item, which must
// still resolve.
func stay(target Screen) handler {
	return func(ctx context.Context, c *Controller, s State, _ Event, t *Transition) (State, error) {
		item, err := c.catalog.GetItem(ctx, s.ActiveItemID)
		if err != nil {
			return State{}, err
		}
		t.Item = item
		return State{Screen: target, ActiveItemID: item.ID}, nil
	}
}

func login(_ context.Context, _ *Controller, _ State, ev Event, _ *Transition) (State, error) {
	e, err := payload[LoginSubmitted](ev)
	if err != nil {
		return State{}, err
	}
	if err := validate.CheckLogin(e.Credentials); err != nil {
		return State{}, err
	}
	return State{Screen: Home}, nil
}

func signup(ctx context.Context, c *Controller, _ State, ev Event, _ *Transition) (State, error) {
	e, err := payload[SignupSubmitted](ev)
	if err != nil {
		return State{}, err
	}
	form := e.Form
	if err := validate.CheckSignup(form); err != nil {
		return State{}, err
	}
	if c.accounts != nil {
		if err := c.accounts.RecordSignup(ctx, validate.NormalizeSignup(form)); err != nil {
			return State{}, fmt.Errorf("recording signup: %w", err)
		}
	}
	return State{Screen: Home}, nil
}

func logout(context.Context, *Controller, State, Event, *Transition) (State, error) {
	return State{Screen: Login}, nil
}

func openItem(ctx context.Context, c *Controller, _ State, ev Event, t *Transition) (State, error) {
	e, err := payload[OpenItem](ev)
	if err != nil {
		return State{}, err
	}
	id := e.ItemID
	if id == "" {
		return State{}, model.Invalid("item_id", "required")
	}
	item, err := c.catalog.GetItem(ctx, id)
	if err != nil {
		return State{}, err
	}
	t.Item = item
	return State{Screen: Detail, ActiveItemID: item.ID}, nil
}

func submitUpload(ctx context.Context, c *Controller, _ State, ev Event, t *Transition) (State, error) {
	e, err := payload[SubmitUpload](ev)
	if err != nil {
		return State{}, err
	}
	item, err := c.catalog.CreateItem(ctx, e.Draft)
	if err != nil {
		return State{}, err
	}
	t.Item = item
	return State{Screen: Home}, nil
}

func fixIt(ctx context.Context, c *Controller, s State, _ Event, t *Transition) (State, error) {
	item, err := c.catalog.GetItem(ctx, s.ActiveItemID)
	if err != nil {
		return State{}, err
	}
	if item.Status != model.StatusAvailable {
		return State{}, &model.TransitionError{From: string(item.Status), To: string(Checkout)}
	}
	t.Item = item
	return State{Screen: Checkout, ActiveItemID: item.ID}, nil
}

func markFixed(ctx context.Context, c *Controller, s State, _ Event, t *Transition) (State, error) {
	item, err := c.catalog.UpdateStatus(ctx, s.ActiveItemID, model.StatusFixed)
	if err != nil {
		return State{}, err
	}
	t.Item = item
	return s, nil
}

// confirmOffer applies the agreed offer as the item's fee. The offer is
// consumed only if the fee was written.
func confirmOffer(ctx context.Context, c *Controller, s State, _ Event, t *Transition) (State, error) {
	var item *model.Item
	amount, err := c.chat.Settle(ctx, s.ActiveItemID, func(ctx context.Context, amount string) error {
		var err error
		item, err = c.catalog.ApplyFee(ctx, s.ActiveItemID, amount)
		return err
	})
	if err != nil {
		return State{}, err
	}
	t.Item = item
	t.Amount = amount
	return State{Screen: Checkout, ActiveItemID: s.ActiveItemID}, nil
}

func confirmCheckout(ctx context.Context, c *Controller, s State, ev Event, t *Transition) (State, error) {
	e, err := payload[ConfirmCheckout](ev)
	if err != nil {
		return State{}, err
	}
	payment := e.Payment
	if payment == "" {
		payment = PaymentCOD
	}
	if payment != PaymentCOD && payment != PaymentSPay {
		return State{}, model.Invalid("payment", fmt.Sprintf("unknown payment method %q", payment))
	}

	item, err := c.catalog.UpdateStatus(ctx, s.ActiveItemID, model.StatusInProgress)
	if err != nil {
		return State{}, err
	}
	t.Item = item
	t.Amount = item.Fee
	t.Payment = payment
	return State{Screen: Success, ActiveItemID: item.ID}, nil
}
