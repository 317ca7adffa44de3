package storefront

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"limitedtees.shop/storefront/internal/catalog"
)

// SubscribeStatus is the lifecycle of one signup form.
type SubscribeStatus string

const (
	SubscribeIdle    SubscribeStatus = ""
	SubscribeLoading SubscribeStatus = "loading"
	SubscribeSuccess SubscribeStatus = "success"
	SubscribeError   SubscribeStatus = "error"
)

// SubscribeForm is the signup form's state.
type SubscribeForm struct {
	Email  string
	Name   string
	Status SubscribeStatus
}

// Loading reports whether a submission is in flight; the submit control is
// disabled while true.
func (f SubscribeForm) Loading() bool { return f.Status == SubscribeLoading }

// Begin moves the form to loading. A form that is already loading is
// returned unchanged so a second submit cannot start.
func (f SubscribeForm) Begin() (SubscribeForm, bool) {
	if f.Loading() {
		return f, false
	}
	f.Status = SubscribeLoading
	return f, true
}

// Complete settles a loading form. Success clears the email; every other
// outcome keeps it so the visitor can retry.
func (f SubscribeForm) Complete(res catalog.SubscribeResult, err error) SubscribeForm {
	if err == nil && res.OK() {
		f.Status = SubscribeSuccess
		f.Email = ""
		return f
	}
	f.Status = SubscribeError
	return f
}

// Submit runs one submission end to end: begin, validate, send, complete.
// An invalid address settles to error without calling sub.
func Submit(ctx context.Context, sub catalog.Subscriber, form SubscribeForm, logger *zap.Logger) SubscribeForm {
	if logger == nil {
		logger = zap.NewNop()
	}
	form, ok := form.Begin()
	if !ok {
		return form
	}
	submission := catalog.Submission{Email: form.Email, Name: form.Name}.Normalize()
	form.Email, form.Name = submission.Email, submission.Name
	if err := submission.Validate(); err != nil {
		logger.Info("subscribe rejected", zap.Error(err))
		return form.Complete(catalog.SubscribeResult{}, err)
	}
	res, err := sub.Subscribe(ctx, submission)
	switch {
	case err != nil && errors.Is(err, catalog.ErrInvalidSubmission):
		logger.Info("subscribe rejected", zap.Error(err))
	case err != nil:
		logger.Warn("subscribe failed", zap.Error(err))
	case !res.OK():
		logger.Warn("subscribe not accepted", zap.String("status", res.Status))
	}
	return form.Complete(res, err)
}
