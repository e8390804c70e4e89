package client

import (
	"context"
	"errors"

	"github.com/frahmantamala/employee-directory/internal/core/common/i18n"
)

type ViewState string

const (
	ViewLoading ViewState = "loading"
	ViewSuccess ViewState = "success"
	ViewError   ViewState = "error"
)

// View is the state of a list or detail screen.
type View[T any] struct {
	State ViewState
	Data  T
	Error string
}

// LoadView runs fetch and settles the view in success or error.
func LoadView[T any](ctx context.Context, c *Client, fetch func(context.Context) (T, error)) View[T] {
	v := View[T]{State: ViewLoading}

	data, err := fetch(ctx)
	if err != nil {
		v.State = ViewError
		v.Error = c.ErrorMessage(err)
		return v
	}

	v.State = ViewSuccess
	v.Data = data
	return v
}

type FormState string

const (
	FormIdle       FormState = "idle"
	FormSubmitting FormState = "submitting"
)

// Form tracks a create or edit screen. A failed submit returns to idle with
// Error set; a successful one clears it.
type Form struct {
	State FormState
	Error string
}

func NewForm() *Form {
	return &Form{State: FormIdle}
}

// Submit runs send unless a submission is already in flight.
func (f *Form) Submit(ctx context.Context, c *Client, send func(context.Context) error) error {
	if f.State == FormSubmitting {
		return nil
	}

	f.State = FormSubmitting
	f.Error = ""
	err := send(ctx)
	f.State = FormIdle
	if err != nil {
		f.Error = c.ErrorMessage(err)
	}
	return err
}

// ErrorMessage renders err for display, preferring the server's message.
func (c *Client) ErrorMessage(err error) string {
	var apiErr *APIError
	switch {
	case errors.As(err, &apiErr):
		return apiErr.Message
	case errors.Is(err, ErrSessionExpired):
		return c.Message(i18n.MsgSessionExpired)
	case errors.Is(err, ErrLoginRequired):
		return c.Message(i18n.MsgLoginRequired)
	default:
		return c.Message(i18n.MsgRequestFailed)
	}
}
