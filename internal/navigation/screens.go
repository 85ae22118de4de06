// Package navigation is the screen state machine: exactly one screen is
// visible, and screens that show an item carry the id of that item.
package navigation

import "github.com/erazemk/fixitforward/internal/model"

// Screen identifies a visible screen.
type Screen string

// Screens.
const (
	Login    Screen = "login"
	Signup   Screen = "signup"
	Home     Screen = "home"
	Upload   Screen = "upload"
	Detail   Screen = "detail"
	Chat     Screen = "chat"
	Checkout Screen = "checkout"
	Success  Screen = "success"
)

// Screens lists every screen.
var Screens = []Screen{Login, Signup, Home, Upload, Detail, Chat, Checkout, Success}

// NeedsItem reports whether the screen shows an active item.
func (s Screen) NeedsItem() bool {
	switch s {
	case Detail, Chat, Checkout, Success:
		return true
	}
	return false
}

// State is what the controller exposes: the visible screen and, for item
// screens, the id of the item shown.
type State struct {
	Screen       Screen `json:"screen"`
	ActiveItemID string `json:"active_item_id,omitempty"`
}

// PaymentMethod is chosen on checkout. No payment is processed.
type PaymentMethod string

// Payment methods.
const (
	PaymentCOD  PaymentMethod = "COD"
	PaymentSPay PaymentMethod = "SPay"
)

// Event is a user action fed to the controller.
type Event interface {
	Name() string
}

// LoginSubmitted submits the login form.
type LoginSubmitted struct{ Credentials model.Credentials }

// GoSignup opens the signup form.
type GoSignup struct{}

// SignupSubmitted submits the signup form.
type SignupSubmitted struct{ Form model.SignupForm }

// Back leaves the current screen for its parent.
type Back struct{}

// OpenItem shows an item's details.
type OpenItem struct{ ItemID string }

// OpenUpload opens the listing form.
type OpenUpload struct{}

// SubmitUpload lists a new item.
type SubmitUpload struct{ Draft model.ItemDraft }

// FixIt goes to checkout at the listed fee.
type FixIt struct{}

// OpenChat opens the item's chat.
type OpenChat struct{}

// MarkFixed completes the repair of an in-progress item.
type MarkFixed struct{}

// ConfirmOffer accepts the agreed offer and goes to checkout.
type ConfirmOffer struct{}

// ConfirmCheckout requests the repair.
type ConfirmCheckout struct{ Payment PaymentMethod }

// ReturnHome leaves the success screen.
type ReturnHome struct{}

// Logout ends the session from any screen.
type Logout struct{}

func (LoginSubmitted) Name() string  { return "login" }
func (GoSignup) Name() string        { return "goSignup" }
func (SignupSubmitted) Name() string { return "signup" }
func (Back) Name() string            { return "back" }
func (OpenItem) Name() string        { return "openItem" }
func (OpenUpload) Name() string      { return "openUpload" }
func (SubmitUpload) Name() string    { return "submit" }
func (FixIt) Name() string           { return "fixIt" }
func (OpenChat) Name() string        { return "chat" }
func (MarkFixed) Name() string       { return "markFixed" }
func (ConfirmOffer) Name() string    { return "confirmOffer" }
func (ConfirmCheckout) Name() string { return "fixItConfirmed" }
func (ReturnHome) Name() string      { return "returnHome" }
func (Logout) Name() string          { return "logout" }
