package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"helloasso-export/internal/domain"
)

// Notifier delivers run outcome messages. Delivery is best-effort: the
// pipeline logs a failed Send but never lets it change the run result.
type Notifier interface {
	Send(ctx context.Context, o Outcome) error
}

// Outcome describes a finished run for notification purposes. Failure
// outcomes carry only the error category and message, never secret material
// or raw upstream responses.
type Outcome struct {
	RunID       string
	Environment string
	Period      domain.Period
	From        civil.Date
	To          civil.Date
	Success     bool
	Rows        int
	Bucket      string
	ObjectKey   string
	URL         string
	ExpiresAt   time.Time
	ErrKind     domain.Kind
	ErrMessage  string
}

// Composer renders outcome notifications from configurable subject templates.
// Templates may use {period}, {from_date}, {to_date} and {environment}
// placeholders.
type Composer struct {
	SuccessSubject string
	ErrorSubject   string
}

// Subject renders the subject template matching the outcome.
func (c *Composer) Subject(o Outcome) string {
	tmpl := c.SuccessSubject
	if !o.Success {
		tmpl = c.ErrorSubject
	}
	r := strings.NewReplacer(
		"{period}", periodLabel(o.Period),
		"{from_date}", dateLabel(o.From),
		"{to_date}", dateLabel(o.To),
		"{environment}", o.Environment,
	)
	return r.Replace(tmpl)
}

// Body renders the notification body for the outcome.
func (c *Composer) Body(o Outcome) string {
	if o.Success {
		return fmt.Sprintf(
			"Traitement HelloAsso terminé (pour l'environnement '%s').\n\n"+
				"Période couverte : du %s au %s\n"+
				"Nombre total d'enregistrements traités : %d\n\n"+
				"Le fichier de résultats au format CSV est disponible via ce lien (valide jusqu'au %s) :\n%s\n\n"+
				"(Bucket: %s)\n"+
				"Identifiant d'exécution : %s",
			o.Environment,
			dateLabel(o.From), dateLabel(o.To),
			o.Rows,
			o.ExpiresAt.UTC().Format("2006-01-02 15:04:05 MST"), o.URL,
			o.Bucket,
			o.RunID,
		)
	}
	return fmt.Sprintf(
		"L'export HelloAsso a échoué pour la période %s à %s.\n"+
			"Catégorie d'erreur : %s\n"+
			"Erreur : %s\n"+
			"Consultez les logs pour plus de détails.\n"+
			"Identifiant d'exécution : %s",
		dateLabel(o.From), dateLabel(o.To),
		o.ErrKind,
		o.ErrMessage,
		o.RunID,
	)
}

// Attributes returns the structured metadata attached alongside the rendered
// message.
func Attributes(o Outcome) map[string]string {
	attrs := map[string]string{
		"environment": o.Environment,
		"run_id":      o.RunID,
	}
	if o.Success {
		attrs["outcome"] = "success"
	} else {
		attrs["outcome"] = "failure"
		if o.ErrKind != "" {
			attrs["error_category"] = string(o.ErrKind)
		}
	}
	if !o.Period.IsZero() {
		attrs["period"] = o.Period.String()
	}
	return attrs
}

// periodLabel and dateLabel render "N/A" when the run failed before the
// period was resolved.
func periodLabel(p domain.Period) string {
	if p.IsZero() {
		return "N/A"
	}
	return p.String()
}

func dateLabel(d civil.Date) string {
	if !d.IsValid() {
		return "N/A"
	}
	return d.String()
}
