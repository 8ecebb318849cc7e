package export

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"helloasso-export/internal/domain"
	"helloasso-export/internal/helloasso"
)

// statusLabels maps API payment states to the French labels of the export.
// The table is closed: a state outside it fails the transformation rather
// than leaking an untranslated value into the document.
var statusLabels = map[helloasso.PaymentState]string{
	helloasso.StatePending:    "En attente",
	helloasso.StateAuthorized: "Autorisé",
	helloasso.StateRefused:    "Refusé",
	helloasso.StateRegistered: "Enregistré",
	helloasso.StateRefunded:   "Remboursé",
	helloasso.StateRefunding:  "En cours de remboursement",
	helloasso.StateContested:  "Contesté",
}

// Row is one line of the payments export, all fields pre-rendered as the
// strings that go into the CSV cell.
type Row struct {
	Date       string
	Amount     string
	Status     string
	PayerName  string
	PayerEmail string
	Item       string
	Reference  string
}

// Transform converts fetched payments into export rows, one row per payment
// in input order. Any payment whose state has no translation aborts the whole
// transformation with a TransformError.
func Transform(payments []helloasso.Payment) ([]Row, error) {
	rows := make([]Row, 0, len(payments))
	for _, p := range payments {
		status, ok := statusLabels[p.State]
		if !ok {
			return nil, domain.Errorf(domain.KindTransform, "payment %d: unknown state %q", p.ID, p.State)
		}

		// The order date is the business date of the payment; fall back to
		// the payment date when the order sub-object is absent.
		date := p.Order.Date
		if date.IsZero() {
			date = p.Date
		}

		rows = append(rows, Row{
			Date:       date.Format("02/01/2006"),
			Amount:     frenchAmount(p.Amount),
			Status:     status,
			PayerName:  payerName(p.Payer),
			PayerEmail: p.Payer.Email,
			Item:       itemNames(p.Items),
			Reference:  orderReference(p.Order),
		})
	}
	return rows, nil
}

// frenchAmount renders centimes as a two-decimal euro amount with a decimal
// comma, e.g. 123456 -> "1234,56".
func frenchAmount(centimes int64) string {
	s := decimal.New(centimes, -2).StringFixed(2)
	return strings.Replace(s, ".", ",", 1)
}

func payerName(p helloasso.Payer) string {
	return strings.TrimSpace(strings.TrimSpace(p.FirstName) + " " + strings.TrimSpace(p.LastName))
}

func itemNames(items []helloasso.Item) string {
	if len(items) == 0 {
		return ""
	}
	names := make([]string, 0, len(items))
	for _, item := range items {
		names = append(names, item.Name)
	}
	return strings.Join(names, "/")
}

func orderReference(o helloasso.Order) string {
	if o.ID == 0 {
		return ""
	}
	return strconv.FormatInt(o.ID, 10)
}
