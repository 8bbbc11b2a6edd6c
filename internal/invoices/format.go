package invoices

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Summary is the localized projection of an invoice returned by the
// summary endpoint.
type Summary struct {
	Number      string `json:"number"`
	Status      Status `json:"status"`
	Currency    string `json:"currency"`
	Subtotal    string `json:"subtotal"`
	Tax         string `json:"tax"`
	Total       string `json:"total"`
	Paid        string `json:"paid"`
	Outstanding string `json:"outstanding"`
}

// Summarize formats invoice amounts for the given BCP 47 locale tag.
// Unknown tags fall back to English formatting.
func Summarize(inv *Invoice, locale string) Summary {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	p := message.NewPrinter(tag)
	fmtCents := func(cents int64) string {
		return p.Sprintf("%v %s",
			number.Decimal(float64(cents)/100,
				number.MinFractionDigits(2), number.MaxFractionDigits(2)),
			inv.Currency)
	}
	return Summary{
		Number:      inv.Number,
		Status:      inv.Status,
		Currency:    inv.Currency,
		Subtotal:    fmtCents(inv.SubtotalCents),
		Tax:         fmtCents(inv.TaxCents),
		Total:       fmtCents(inv.TotalCents),
		Paid:        fmtCents(inv.PaidCents),
		Outstanding: fmtCents(inv.OutstandingCents()),
	}
}
