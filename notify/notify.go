// Package notify defines the user-feedback collaborators used by the request
// layer: toasts, modals, a loading indicator and page navigation.
//
// The request layer never renders anything itself; it calls these interfaces
// from its error interceptor and loading lifecycle.
package notify

import "time"

// Variant is the icon shown next to a toast.
type Variant string

const (
	VariantNone    Variant = "none"
	VariantSuccess Variant = "success"
	VariantError   Variant = "error"
	VariantLoading Variant = "loading"
)

// DefaultToastDuration is how long error toasts stay on screen.
const DefaultToastDuration = 2 * time.Second

// Notifier shows fire-and-forget feedback.
type Notifier interface {
	Toast(message string, variant Variant, d time.Duration)
	Modal(title, message string)
	// ShowLoading displays a masked loading indicator. The returned handle
	// hides it; Hide may be called more than once.
	ShowLoading(text string) Loading
}

// Loading is a visible loading indicator.
type Loading interface {
	Hide()
}

// Navigator moves between pages.
type Navigator interface {
	Redirect(path string)
	NavigateTo(path string)
	Back(levels int)
}

type nop struct{}

func (nop) Toast(string, Variant, time.Duration) {}
func (nop) Modal(string, string)                 {}
func (nop) ShowLoading(string) Loading           { return nopLoading{} }
func (nop) Redirect(string)                      {}
func (nop) NavigateTo(string)                    {}
func (nop) Back(int)                             {}

type nopLoading struct{}

func (nopLoading) Hide() {}

// Nop returns a Notifier that discards everything.
func Nop() Notifier { return nop{} }

// NopNavigator returns a Navigator that ignores every call.
func NopNavigator() Navigator { return nop{} }
