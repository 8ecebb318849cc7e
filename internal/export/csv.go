package export

import (
	"bytes"
	"encoding/csv"

	"helloasso-export/internal/domain"
)

// Headers is the fixed column set of the export file, in cell order.
var Headers = []string{
	"Date du paiement",
	"Montant",
	"Statut du paiement",
	"Nom payeur",
	"Email payeur",
	"Description",
	"Référence commande",
}

// bom is the UTF-8 byte order mark. French Excel needs it to pick the right
// encoding when opening the file by double click.
var bom = []byte{0xEF, 0xBB, 0xBF}

// WriteCSV renders rows as a semicolon-separated UTF-8 document with the
// fixed header line. Identical input always yields identical bytes.
func WriteCSV(rows []Row, withBOM bool) ([]byte, error) {
	var buf bytes.Buffer
	if withBOM {
		buf.Write(bom)
	}

	w := csv.NewWriter(&buf)
	w.Comma = ';'

	if err := w.Write(Headers); err != nil {
		return nil, domain.Errorf(domain.KindTransform, "write csv header: %w", err)
	}
	for i, r := range rows {
		record := []string{r.Date, r.Amount, r.Status, r.PayerName, r.PayerEmail, r.Item, r.Reference}
		if err := w.Write(record); err != nil {
			return nil, domain.Errorf(domain.KindTransform, "write csv row %d: %w", i, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, domain.Errorf(domain.KindTransform, "flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
