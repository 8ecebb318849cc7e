package export

import (
	"strings"
	"testing"
	"time"

	"helloasso-export/internal/domain"
	"helloasso-export/internal/helloasso"
)

func paymentFixture() helloasso.Payment {
	return helloasso.Payment{
		ID:     42,
		Amount: 123456,
		Date:   time.Date(2026, time.July, 3, 10, 15, 0, 0, time.FixedZone("CEST", 2*3600)),
		State:  helloasso.StateAuthorized,
		Payer: helloasso.Payer{
			FirstName: "Jean",
			LastName:  "Dupont",
			Email:     "jean@example.org",
		},
		Items: []helloasso.Item{
			{Name: "Adhésion annuelle", Amount: 120000, State: "Processed"},
			{Name: "Don", Amount: 3456, State: "Processed"},
		},
		Order: helloasso.Order{
			ID:   9001,
			Date: time.Date(2026, time.July, 2, 23, 50, 0, 0, time.UTC),
		},
	}
}

func TestTransform(t *testing.T) {
	rows, err := Transform([]helloasso.Payment{paymentFixture()})
	if err != nil {
		t.Fatalf("Transform() error = %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("len(rows) = %d, want 1", len(rows))
	}

	got := rows[0]
	want := Row{
		Date:       "02/07/2026",
		Amount:     "1234,56",
		Status:     "Autorisé",
		PayerName:  "Jean Dupont",
		PayerEmail: "jean@example.org",
		Item:       "Adhésion annuelle/Don",
		Reference:  "9001",
	}
	if got != want {
		t.Errorf("Transform() row = %+v, want %+v", got, want)
	}
}

func TestTransformStatusLabels(t *testing.T) {
	tests := []struct {
		state helloasso.PaymentState
		want  string
	}{
		{helloasso.StatePending, "En attente"},
		{helloasso.StateAuthorized, "Autorisé"},
		{helloasso.StateRefused, "Refusé"},
		{helloasso.StateRegistered, "Enregistré"},
		{helloasso.StateRefunded, "Remboursé"},
		{helloasso.StateRefunding, "En cours de remboursement"},
		{helloasso.StateContested, "Contesté"},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			p := paymentFixture()
			p.State = tt.state
			rows, err := Transform([]helloasso.Payment{p})
			if err != nil {
				t.Fatalf("Transform() error = %v", err)
			}
			if rows[0].Status != tt.want {
				t.Errorf("Status = %q, want %q", rows[0].Status, tt.want)
			}
		})
	}
}

func TestTransformUnknownState(t *testing.T) {
	p := paymentFixture()
	p.State = "Settled"

	_, err := Transform([]helloasso.Payment{p})
	if err == nil {
		t.Fatal("Transform() error = nil, want TransformError for unmapped state")
	}
	if kind := domain.KindOf(err); kind != domain.KindTransform {
		t.Errorf("KindOf() = %q, want %q", kind, domain.KindTransform)
	}
	if !strings.Contains(err.Error(), "42") || !strings.Contains(err.Error(), "Settled") {
		t.Errorf("error should name the payment id and state, got: %v", err)
	}
}

func TestTransformMissingOptionals(t *testing.T) {
	p := helloasso.Payment{
		ID:     7,
		Amount: 500,
		Date:   time.Date(2026, time.July, 10, 8, 0, 0, 0, time.UTC),
		State:  helloasso.StatePending,
	}

	rows, err := Transform([]helloasso.Payment{p})
	if err != nil {
		t.Fatalf("Transform() error = %v", err)
	}

	got := rows[0]
	if got.Date != "10/07/2026" {
		t.Errorf("Date = %q, want fallback to the payment date", got.Date)
	}
	if got.PayerName != "" || got.PayerEmail != "" || got.Item != "" || got.Reference != "" {
		t.Errorf("missing optionals must render empty, got %+v", got)
	}
	if got.Amount != "5,00" {
		t.Errorf("Amount = %q, want \"5,00\"", got.Amount)
	}
}

func TestTransformRowCountAndOrder(t *testing.T) {
	var payments []helloasso.Payment
	for i := int64(1); i <= 5; i++ {
		p := paymentFixture()
		p.ID = i
		p.Order.ID = i * 10
		payments = append(payments, p)
	}

	rows, err := Transform(payments)
	if err != nil {
		t.Fatalf("Transform() error = %v", err)
	}
	if len(rows) != len(payments) {
		t.Fatalf("len(rows) = %d, want %d (exactly one row per payment)", len(rows), len(payments))
	}
	for i, r := range rows {
		want := []string{"10", "20", "30", "40", "50"}[i]
		if r.Reference != want {
			t.Errorf("rows[%d].Reference = %q, want %q (input order must hold)", i, r.Reference, want)
		}
	}
}

func TestFrenchAmount(t *testing.T) {
	tests := []struct {
		centimes int64
		want     string
	}{
		{0, "0,00"},
		{5, "0,05"},
		{50, "0,50"},
		{100, "1,00"},
		{123456, "1234,56"},
		{999999999, "9999999,99"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := frenchAmount(tt.centimes); got != tt.want {
				t.Errorf("frenchAmount(%d) = %q, want %q", tt.centimes, got, tt.want)
			}
		})
	}
}

func TestPayerName(t *testing.T) {
	tests := []struct {
		name  string
		payer helloasso.Payer
		want  string
	}{
		{"both names", helloasso.Payer{FirstName: "Jean", LastName: "Dupont"}, "Jean Dupont"},
		{"first only", helloasso.Payer{FirstName: "Jean"}, "Jean"},
		{"last only", helloasso.Payer{LastName: "Dupont"}, "Dupont"},
		{"empty", helloasso.Payer{}, ""},
		{"padded", helloasso.Payer{FirstName: " Jean ", LastName: " Dupont "}, "Jean Dupont"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := payerName(tt.payer); got != tt.want {
				t.Errorf("payerName() = %q, want %q", got, tt.want)
			}
		})
	}
}
