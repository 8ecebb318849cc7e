package pipeline

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/google/uuid"

	"helloasso-export/internal/artifact"
	"helloasso-export/internal/config"
	"helloasso-export/internal/domain"
	"helloasso-export/internal/helloasso"
	"helloasso-export/internal/logger"
	"helloasso-export/internal/notify"
	"helloasso-export/internal/secrets"
)

// Runner drives one complete export invocation: credentials, fetch,
// transform, CSV, upload, notification.
type Runner struct {
	environment string
	bucket      string
	graceDays   int
	withBOM     bool

	creds       CredentialSource
	newPayments PaymentsFactory
	artifacts   ArtifactStore
	notifier    notify.Notifier

	cleanup func() error
}

// Deps carries everything a Runner needs. Tests inject fakes here;
// NewFromConfig fills it with the real clients.
type Deps struct {
	Environment string
	Bucket      string
	GraceDays   int
	WithBOM     bool
	Credentials CredentialSource
	NewPayments PaymentsFactory
	Artifacts   ArtifactStore
	Notifier    notify.Notifier
}

// New assembles a Runner from explicit dependencies.
func New(deps Deps) *Runner {
	return &Runner{
		environment: deps.Environment,
		bucket:      deps.Bucket,
		graceDays:   deps.GraceDays,
		withBOM:     deps.WithBOM,
		creds:       deps.Credentials,
		newPayments: deps.NewPayments,
		artifacts:   deps.Artifacts,
		notifier:    deps.Notifier,
	}
}

// NewFromConfig wires a Runner against the real GCP and HelloAsso clients.
// Callers must Close the Runner when done.
func NewFromConfig(ctx context.Context, cfg *config.Config) (*Runner, error) {
	provider, err := secrets.NewProvider(ctx, cfg.ProjectID, secrets.Names{
		APIURL:       cfg.APIURLSecret,
		TokenURL:     cfg.TokenURLSecret,
		ClientID:     cfg.ClientIDSecret,
		ClientSecret: cfg.ClientSecretSecret,
	})
	if err != nil {
		return nil, err
	}

	store, err := artifact.NewStore(ctx, cfg.Bucket, cfg.ObjectPrefix, cfg.SignedURLTTL)
	if err != nil {
		_ = provider.Close()
		return nil, err
	}

	composer := &notify.Composer{
		SuccessSubject: cfg.SuccessSubject,
		ErrorSubject:   cfg.ErrorSubject,
	}

	var notifiers notify.MultiNotifier
	var pubsubClient *pubsub.Client
	var pubsubNotifier *notify.PubSubNotifier
	if cfg.OutcomeTopic != "" {
		pubsubClient, err = pubsub.NewClient(ctx, cfg.ProjectID)
		if err != nil {
			_ = store.Close()
			_ = provider.Close()
			return nil, err
		}
		pubsubNotifier = notify.NewPubSubNotifier(pubsubClient, cfg.OutcomeTopic, composer)
		notifiers = append(notifiers, pubsubNotifier)
	}
	if cfg.BrevoAPIKey != "" && len(cfg.NotifyEmails) > 0 {
		notifiers = append(notifiers,
			notify.NewEmailNotifier(cfg.BrevoAPIKey, cfg.BrevoFromEmail, cfg.BrevoFromName, cfg.NotifyEmails, composer))
	}
	if len(notifiers) == 0 {
		log := logger.FromContext(ctx)
		log.Warn().Msg("No notification channel configured; outcomes will only be logged")
	}

	r := New(Deps{
		Environment: cfg.Environment,
		Bucket:      cfg.Bucket,
		GraceDays:   cfg.PeriodGraceDays,
		WithBOM:     cfg.CSVBOM,
		Credentials: provider,
		NewPayments: defaultPaymentsFactory(cfg.PeriodGraceDays, cfg.TokenSafetyMargin),
		Artifacts:   store,
		Notifier:    notifiers,
	})
	r.cleanup = func() error {
		if pubsubNotifier != nil {
			pubsubNotifier.Stop()
		}
		var errs []error
		if pubsubClient != nil {
			errs = append(errs, pubsubClient.Close())
		}
		errs = append(errs, store.Close(), provider.Close())
		return errors.Join(errs...)
	}
	return r, nil
}

// defaultPaymentsFactory builds the real token manager and payments client
// once the credential secrets are known.
func defaultPaymentsFactory(graceDays int, safetyMargin time.Duration) PaymentsFactory {
	return func(b *secrets.Bundle) PaymentsSource {
		tokens := helloasso.NewTokenManager(nil, b.TokenURL, b.ClientID, b.ClientSecret, safetyMargin)
		return helloasso.NewClient(nil, b.APIBaseURL, tokens, graceDays)
	}
}

// Run executes one export for the period derived from now, or for
// overridePeriod ("YYYY-MM") when supplied. The first fatal error aborts the
// run, triggers one best-effort failure notification and is returned so the
// host records the invocation as failed. A failed success notification is
// logged but never turns a completed export into a failure.
func (r *Runner) Run(ctx context.Context, now time.Time, overridePeriod string) error {
	runID := uuid.NewString()
	log := logger.FromContext(ctx).With().Str("run_id", runID).Logger()
	ctx = logger.WithContext(ctx, log)

	period, err := resolvePeriod(now, overridePeriod)
	if err != nil {
		err = domain.Classify(err)
		log.Error().Err(err).Msg("Export failed")
		r.notifyFailure(ctx, runID, domain.Period{}, err)
		return err
	}

	from, to := period.Window(r.graceDays)
	log.Info().
		Str("period", period.String()).
		Str("from", from.String()).
		Str("to", to.String()).
		Msg("Starting export")

	state := &State{Period: period}
	pipe := NewPipeline(
		&resolveCredentialsStep{creds: r.creds},
		&fetchPaymentsStep{newPayments: r.newPayments},
		&transformStep{},
		&renderCSVStep{withBOM: r.withBOM},
		&storeArtifactStep{store: r.artifacts},
	)
	if err := pipe.Execute(ctx, state); err != nil {
		err = domain.Classify(err)
		log.Error().
			Err(err).
			Str("category", string(domain.KindOf(err))).
			Msg("Export failed")
		r.notifyFailure(ctx, runID, period, err)
		return err
	}

	log.Info().
		Int("rows", len(state.Rows)).
		Str("bucket", r.bucket).
		Str("object", state.ObjectKey).
		Msg("Export stored")

	outcome := notify.Outcome{
		RunID:       runID,
		Environment: r.environment,
		Period:      period,
		From:        from,
		To:          to,
		Success:     true,
		Rows:        len(state.Rows),
		Bucket:      r.bucket,
		ObjectKey:   state.ObjectKey,
		URL:         state.URL,
		ExpiresAt:   state.ExpiresAt,
	}
	if err := r.notifier.Send(ctx, outcome); err != nil {
		log.Warn().Err(err).Msg("Success notification failed")
	}
	return nil
}

// notifyFailure attempts exactly one failure notification. Delivery problems
// are logged; the original error stays the run outcome.
func (r *Runner) notifyFailure(ctx context.Context, runID string, period domain.Period, runErr error) {
	log := logger.FromContext(ctx)

	outcome := notify.Outcome{
		RunID:       runID,
		Environment: r.environment,
		Period:      period,
		Success:     false,
		ErrKind:     domain.KindOf(runErr),
		ErrMessage:  errorMessage(runErr),
	}
	if !period.IsZero() {
		outcome.From, outcome.To = period.Window(r.graceDays)
	}
	if err := r.notifier.Send(ctx, outcome); err != nil {
		log.Warn().Err(err).Msg("Failure notification failed")
	}
}

// Close releases the clients owned by NewFromConfig. Runners built from
// explicit Deps own nothing and Close is a no-op.
func (r *Runner) Close() error {
	if r.cleanup == nil {
		return nil
	}
	return r.cleanup()
}

// resolvePeriod picks the export month: the override when given, otherwise
// the calendar month before now.
func resolvePeriod(now time.Time, override string) (domain.Period, error) {
	if override != "" {
		return domain.ParsePeriod(override)
	}
	return domain.PeriodOf(now).Previous(), nil
}

// errorMessage extracts the message to expose in notifications: the cause
// inside the classified error, without the category prefix and without any
// pipeline wrapping.
func errorMessage(err error) string {
	var e *domain.Error
	if errors.As(err, &e) {
		return e.Err.Error()
	}
	return err.Error()
}
