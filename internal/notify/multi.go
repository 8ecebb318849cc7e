package notify

import (
	"context"
	"errors"

	"helloasso-export/internal/domain"
)

// MultiNotifier fans an outcome out to several channels. Every channel is
// attempted; failures are collected instead of short-circuiting.
type MultiNotifier []Notifier

// Send delivers the outcome through every configured notifier.
func (m MultiNotifier) Send(ctx context.Context, o Outcome) error {
	var errs []error
	for _, n := range m {
		if err := n.Send(ctx, o); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return domain.E(domain.KindNotification, errors.Join(errs...))
	}
	return nil
}
