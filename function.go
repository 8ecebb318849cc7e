// Package helloassoexport exposes the payments export as a Cloud Functions
// (2nd gen) target. Cloud Scheduler publishes to a Pub/Sub topic; the
// resulting CloudEvent triggers one export run for the previous calendar
// month, or for the period carried in the message payload.
package helloassoexport

import (
	"context"
	"encoding/json"
	"time"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/cloudevents/sdk-go/v2/event"

	"helloasso-export/internal/config"
	"helloasso-export/internal/logger"
	"helloasso-export/internal/pipeline"
)

func init() {
	functions.CloudEvent("export-payments", exportPayments)
}

// messagePublishedData is the Pub/Sub push envelope inside the CloudEvent.
// encoding/json handles the base64 message data.
type messagePublishedData struct {
	Message struct {
		Data []byte `json:"data"`
	} `json:"message"`
}

// triggerPayload is the optional message body published by the scheduler or a
// manual trigger.
type triggerPayload struct {
	Period string `json:"period"`
}

// exportPayments runs one export. Returning an error marks the invocation as
// failed, which feeds platform-level alerting.
func exportPayments(ctx context.Context, e event.Event) error {
	log := logger.NewCloud()
	ctx = logger.WithContext(ctx, log)

	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("Invalid configuration")
		return err
	}

	runner, err := pipeline.NewFromConfig(ctx, cfg)
	if err != nil {
		log.Error().Err(err).Msg("Failed to wire the export pipeline")
		return err
	}
	defer func() {
		if err := runner.Close(); err != nil {
			log.Warn().Err(err).Msg("Cleanup failed")
		}
	}()

	return runner.Run(ctx, time.Now(), periodOverride(e))
}

// periodOverride extracts an optional "period" override from the triggering
// message. Scheduled runs publish an empty body; anything unreadable is
// treated as no override so a malformed manual trigger falls back to the
// default period instead of failing the run.
func periodOverride(e event.Event) string {
	var envelope messagePublishedData
	if err := e.DataAs(&envelope); err != nil {
		return ""
	}
	if len(envelope.Message.Data) == 0 {
		return ""
	}
	var payload triggerPayload
	if err := json.Unmarshal(envelope.Message.Data, &payload); err != nil {
		return ""
	}
	return payload.Period
}
