package export

import (
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/collectdesk/collectdesk/internal/collections"
)

const (
	exportDateLayout = "02-01-2006"
	emptyCell        = "-"
)

// amounts are grouped the way the business reads them (en-IN digits,
// lakh/crore grouping).
var inr = message.NewPrinter(language.MustParse("en-IN"))

// Column declares one exportable field and how to render its value.
// Columns backing interactive controls (approve button, image viewers,
// receipt button) are declared non-exportable here; exclusion is a
// property of the declaration, never runtime inspection of the row.
type Column struct {
	Key        string
	Header     string
	Exportable bool
	Format     func(collections.Record) string
}

// Columns returns the export column declarations in output order.
func Columns() []Column {
	return []Column{
		{Key: "loanId", Header: "Loan Id", Exportable: true, Format: text(func(r collections.Record) string { return r.LoanID })},
		{Key: "customerName", Header: "Customer Name", Exportable: true, Format: text(func(r collections.Record) string { return r.CustomerName })},
		{Key: "vehicleNumber", Header: "Vehicle No.", Exportable: true, Format: text(func(r collections.Record) string { return r.VehicleNumber })},
		{Key: "contactNumber", Header: "Contact", Exportable: true, Format: text(func(r collections.Record) string { return r.ContactNumber })},
		{Key: "paymentDate", Header: "Payment Date", Exportable: true, Format: date(func(r collections.Record) time.Time { return r.PaymentDate })},
		{Key: "partner", Header: "Partner", Exportable: true, Format: text(func(r collections.Record) string { return r.Partner })},
		{Key: "paymentMode", Header: "Mode", Exportable: true, Format: text(func(r collections.Record) string { return r.PaymentMode })},
		{Key: "paymentRef", Header: "Transaction ID", Exportable: true, Format: text(func(r collections.Record) string { return r.PaymentRef })},
		{Key: "amount", Header: "Amount (INR)", Exportable: true, Format: amount},
		{Key: "collectedBy", Header: "Collected By", Exportable: true, Format: text(func(r collections.Record) string { return r.CollectedBy })},
		{Key: "approvedBy", Header: "Approved By", Exportable: true, Format: text(func(r collections.Record) string { return r.ApprovedBy })},
		{Key: "bankDate", Header: "Bank Date", Exportable: true, Format: text(func(r collections.Record) string { return r.BankDate })},
		{Key: "bankUtr", Header: "Bank UTR", Exportable: true, Format: text(func(r collections.Record) string { return r.BankUTR })},
		{Key: "createdAt", Header: "Created On", Exportable: true, Format: date(func(r collections.Record) time.Time { return r.CreatedAt })},

		// Interactive columns, never exported.
		{Key: "approved", Header: "Approval", Exportable: false},
		{Key: "image1", Header: "Image 1", Exportable: false},
		{Key: "image2", Header: "Image 2", Exportable: false},
		{Key: "selfie", Header: "Selfie", Exportable: false},
		{Key: "receipt", Header: "Receipt", Exportable: false},
	}
}

// ExportableColumns filters the declarations down to exported ones.
func ExportableColumns() []Column {
	all := Columns()
	kept := make([]Column, 0, len(all))
	for _, col := range all {
		if col.Exportable {
			kept = append(kept, col)
		}
	}
	return kept
}

func text(get func(collections.Record) string) func(collections.Record) string {
	return func(r collections.Record) string {
		if v := get(r); v != "" {
			return v
		}
		return emptyCell
	}
}

func date(get func(collections.Record) time.Time) func(collections.Record) string {
	return func(r collections.Record) string {
		t := get(r)
		if t.IsZero() {
			return emptyCell
		}
		return t.Format(exportDateLayout)
	}
}

func amount(r collections.Record) string {
	if r.Amount == 0 {
		return emptyCell
	}
	return inr.Sprint(number.Decimal(r.Amount, number.MaxFractionDigits(2)))
}
