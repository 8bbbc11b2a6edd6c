package invoices

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	nextID   int64
	nextLine int64
	invoices map[int64]*Invoice
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{nextID: 1, nextLine: 1, invoices: map[int64]*Invoice{}}
}

func clone(inv *Invoice) *Invoice {
	cp := *inv
	cp.Lines = append([]Line(nil), inv.Lines...)
	cp.Payments = append([]Payment(nil), inv.Payments...)
	return &cp
}

func (m *memoryRepo) Create(_ context.Context, inv *Invoice) error {
	inv.ID = m.nextID
	inv.Number = fmt.Sprintf("INV-%06d", m.nextID)
	m.nextID++
	m.invoices[inv.ID] = clone(inv)
	return nil
}

func (m *memoryRepo) Get(_ context.Context, companyID, id int64) (*Invoice, error) {
	inv, ok := m.invoices[id]
	if !ok || inv.CompanyID != companyID {
		return nil, ErrNotFound
	}
	return clone(inv), nil
}

func (m *memoryRepo) List(_ context.Context, companyID int64, _ ListFilter) ([]Invoice, int64, error) {
	var out []Invoice
	for _, inv := range m.invoices {
		if inv.CompanyID == companyID {
			out = append(out, *clone(inv))
		}
	}
	return out, int64(len(out)), nil
}

func (m *memoryRepo) AddLine(_ context.Context, inv *Invoice, line *Line) error {
	line.ID = m.nextLine
	m.nextLine++
	inv.Lines[len(inv.Lines)-1].ID = line.ID
	m.invoices[inv.ID] = clone(inv)
	return nil
}

func (m *memoryRepo) RemoveLine(_ context.Context, inv *Invoice, _ int64) error {
	m.invoices[inv.ID] = clone(inv)
	return nil
}

func (m *memoryRepo) UpdateStatus(_ context.Context, inv *Invoice) error {
	m.invoices[inv.ID] = clone(inv)
	return nil
}

func (m *memoryRepo) AddPayment(_ context.Context, inv *Invoice, p *Payment) error {
	p.ID = int64(len(inv.Payments) + 1)
	stored := clone(inv)
	stored.Payments = append(stored.Payments, *p)
	m.invoices[inv.ID] = stored
	return nil
}

type recordingCashSink struct {
	sales []int64
}

func (c *recordingCashSink) RecordSale(_ context.Context, _, _, _ int64, _ string, amountCents int64) error {
	c.sales = append(c.sales, amountCents)
	return nil
}

func newTestService(sink CashSink) *Service {
	return NewService(newMemoryRepo(), sink, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func draftInvoice(t *testing.T, svc *Service, taxRateBps int32) *Invoice {
	t.Helper()
	inv, err := svc.Create(context.Background(), 1, 10, "USD", CreateInvoiceRequest{
		CustomerID: 5, LocationID: 1, TaxRateBps: taxRateBps,
	})
	require.NoError(t, err)
	return inv
}

func TestTotalsComputedInIntegerCents(t *testing.T) {
	svc := newTestService(nil)
	inv := draftInvoice(t, svc, 825) // 8.25%

	inv, err := svc.AddLine(context.Background(), 1, inv.ID, LineRequest{
		Description: "Screen replacement", Quantity: 1, UnitPriceCents: 12999,
	})
	require.NoError(t, err)
	inv, err = svc.AddLine(context.Background(), 1, inv.ID, LineRequest{
		Description: "Labor", Quantity: 2, UnitPriceCents: 4500,
	})
	require.NoError(t, err)

	require.Equal(t, int64(21999), inv.SubtotalCents)
	// 21999 * 825 / 10000 = 1814.9175, rounds to 1815
	require.Equal(t, int64(1815), inv.TaxCents)
	require.Equal(t, int64(23814), inv.TotalCents)
}

func TestIssueRequiresLines(t *testing.T) {
	svc := newTestService(nil)
	inv := draftInvoice(t, svc, 0)

	_, err := svc.Issue(context.Background(), 1, inv.ID)
	require.ErrorIs(t, err, ErrNoLines)
}

func TestLinesLockedAfterIssue(t *testing.T) {
	svc := newTestService(nil)
	inv := draftInvoice(t, svc, 0)

	_, err := svc.AddLine(context.Background(), 1, inv.ID, LineRequest{Description: "Labor", Quantity: 1, UnitPriceCents: 5000})
	require.NoError(t, err)
	_, err = svc.Issue(context.Background(), 1, inv.ID)
	require.NoError(t, err)

	_, err = svc.AddLine(context.Background(), 1, inv.ID, LineRequest{Description: "More", Quantity: 1, UnitPriceCents: 100})
	require.ErrorIs(t, err, ErrNotDraft)
}

func TestPaymentsSettleInvoice(t *testing.T) {
	svc := newTestService(nil)
	inv := draftInvoice(t, svc, 0)

	_, err := svc.AddLine(context.Background(), 1, inv.ID, LineRequest{Description: "Labor", Quantity: 1, UnitPriceCents: 10000})
	require.NoError(t, err)
	_, err = svc.Issue(context.Background(), 1, inv.ID)
	require.NoError(t, err)

	inv, err = svc.Pay(context.Background(), 1, inv.ID, 10, PaymentRequest{Method: "card", AmountCents: 4000})
	require.NoError(t, err)
	require.Equal(t, StatusIssued, inv.Status)
	require.Equal(t, int64(6000), inv.OutstandingCents())

	inv, err = svc.Pay(context.Background(), 1, inv.ID, 10, PaymentRequest{Method: "cash", AmountCents: 6000})
	require.NoError(t, err)
	require.Equal(t, StatusPaid, inv.Status)
	require.Equal(t, int64(0), inv.OutstandingCents())
}

func TestOverpaymentRejected(t *testing.T) {
	svc := newTestService(nil)
	inv := draftInvoice(t, svc, 0)

	_, err := svc.AddLine(context.Background(), 1, inv.ID, LineRequest{Description: "Labor", Quantity: 1, UnitPriceCents: 1000})
	require.NoError(t, err)
	_, err = svc.Issue(context.Background(), 1, inv.ID)
	require.NoError(t, err)

	_, err = svc.Pay(context.Background(), 1, inv.ID, 10, PaymentRequest{Method: "cash", AmountCents: 1001})
	require.ErrorIs(t, err, ErrOverpayment)
}

func TestCashPaymentReachesDrawerSink(t *testing.T) {
	sink := &recordingCashSink{}
	svc := newTestService(sink)
	inv := draftInvoice(t, svc, 0)

	_, err := svc.AddLine(context.Background(), 1, inv.ID, LineRequest{Description: "Labor", Quantity: 1, UnitPriceCents: 5000})
	require.NoError(t, err)
	_, err = svc.Issue(context.Background(), 1, inv.ID)
	require.NoError(t, err)

	_, err = svc.Pay(context.Background(), 1, inv.ID, 10, PaymentRequest{Method: "card", AmountCents: 2000})
	require.NoError(t, err)
	require.Empty(t, sink.sales)

	_, err = svc.Pay(context.Background(), 1, inv.ID, 10, PaymentRequest{Method: "cash", AmountCents: 3000})
	require.NoError(t, err)
	require.Equal(t, []int64{3000}, sink.sales)
}

func TestVoidRules(t *testing.T) {
	svc := newTestService(nil)
	inv := draftInvoice(t, svc, 0)

	_, err := svc.AddLine(context.Background(), 1, inv.ID, LineRequest{Description: "Labor", Quantity: 1, UnitPriceCents: 1000})
	require.NoError(t, err)
	_, err = svc.Issue(context.Background(), 1, inv.ID)
	require.NoError(t, err)
	_, err = svc.Pay(context.Background(), 1, inv.ID, 10, PaymentRequest{Method: "cash", AmountCents: 1000})
	require.NoError(t, err)

	_, err = svc.Void(context.Background(), 1, inv.ID)
	require.ErrorIs(t, err, ErrPaidInvoice)

	other := draftInvoice(t, svc, 0)
	voided, err := svc.Void(context.Background(), 1, other.ID)
	require.NoError(t, err)
	require.Equal(t, StatusVoid, voided.Status)

	_, err = svc.Void(context.Background(), 1, other.ID)
	require.ErrorIs(t, err, ErrAlreadyVoid)
}

func TestSummarizeFormatsByLocale(t *testing.T) {
	inv := &Invoice{
		Number: "INV-000001", Status: StatusIssued, Currency: "USD",
		SubtotalCents: 123456, TaxCents: 0, TotalCents: 123456, PaidCents: 0,
	}

	en := Summarize(inv, "en")
	require.Equal(t, "1,234.56 USD", en.Total)

	de := Summarize(inv, "de")
	require.Equal(t, "1.234,56 USD", de.Total)

	fallback := Summarize(inv, "!!")
	require.Equal(t, en.Total, fallback.Total)
}
