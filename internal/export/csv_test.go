package export

import (
	"bytes"
	"encoding/csv"
	"reflect"
	"testing"
)

func sampleRows() []Row {
	return []Row{
		{
			Date:       "02/07/2026",
			Amount:     "1234,56",
			Status:     "Autorisé",
			PayerName:  "Jean Dupont",
			PayerEmail: "jean@example.org",
			Item:       "Adhésion annuelle/Don",
			Reference:  "9001",
		},
		{
			Date:       "05/07/2026",
			Amount:     "15,00",
			Status:     "Refusé",
			PayerName:  `Anne "Nono" Martin; fille`,
			PayerEmail: "anne@example.org",
			Item:       "Stage été\nsemaine 2",
			Reference:  "9002",
		},
	}
}

func TestWriteCSVRoundTrip(t *testing.T) {
	rows := sampleRows()
	doc, err := WriteCSV(rows, false)
	if err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}

	r := csv.NewReader(bytes.NewReader(doc))
	r.Comma = ';'
	records, err := r.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}

	if len(records) != len(rows)+1 {
		t.Fatalf("records = %d, want %d (header plus one per row)", len(records), len(rows)+1)
	}
	if !reflect.DeepEqual(records[0], Headers) {
		t.Errorf("header = %v, want %v", records[0], Headers)
	}
	for i, row := range rows {
		want := []string{row.Date, row.Amount, row.Status, row.PayerName, row.PayerEmail, row.Item, row.Reference}
		if !reflect.DeepEqual(records[i+1], want) {
			t.Errorf("record %d = %v, want %v (separators, quotes and newlines must survive)", i+1, records[i+1], want)
		}
	}
}

func TestWriteCSVBOM(t *testing.T) {
	rows := sampleRows()

	withBOM, err := WriteCSV(rows, true)
	if err != nil {
		t.Fatalf("WriteCSV(bom) error = %v", err)
	}
	withoutBOM, err := WriteCSV(rows, false)
	if err != nil {
		t.Fatalf("WriteCSV(no bom) error = %v", err)
	}

	if !bytes.HasPrefix(withBOM, bom) {
		t.Error("BOM missing from document head")
	}
	if bytes.HasPrefix(withoutBOM, bom) {
		t.Error("BOM present although disabled")
	}
	if !bytes.Equal(bytes.TrimPrefix(withBOM, bom), withoutBOM) {
		t.Error("documents differ beyond the BOM")
	}
	if bytes.Count(withBOM, bom) != 1 {
		t.Errorf("BOM occurs %d times, want exactly once", bytes.Count(withBOM, bom))
	}
}

func TestWriteCSVDeterministic(t *testing.T) {
	rows := sampleRows()

	first, err := WriteCSV(rows, true)
	if err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}
	second, err := WriteCSV(rows, true)
	if err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("identical input produced different bytes")
	}
}

func TestWriteCSVEmpty(t *testing.T) {
	doc, err := WriteCSV(nil, false)
	if err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}

	want := "Date du paiement;Montant;Statut du paiement;Nom payeur;Email payeur;Description;Référence commande\n"
	if string(doc) != want {
		t.Errorf("empty export = %q, want header line only", string(doc))
	}
}
