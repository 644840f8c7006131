package collections

import (
	"strings"
	"time"

	"github.com/collectdesk/collectdesk/internal/shared"
	"github.com/collectdesk/collectdesk/internal/upstream"
)

// VehicleNumberNA is the sentinel shown when an agent submitted no
// vehicle number.
const VehicleNumberNA = "NA"

// Record is one submitted payment in console form. PaymentDate is the
// day the agent physically collected the money; CreatedAt is when the
// LMS ingested the record. The two are never conflated.
type Record struct {
	ID            string    `json:"id"`
	CustomerName  string    `json:"customerName"`
	VehicleNumber string    `json:"vehicleNumber"`
	ContactNumber string    `json:"contactNumber"`
	LoanID        string    `json:"loanId"`
	Partner       string    `json:"partner"`
	CollectedBy   string    `json:"collectedBy"`
	Amount        float64   `json:"amount"`
	PaymentMode   string    `json:"paymentMode"`
	PaymentRef    string    `json:"paymentRef"`
	PaymentDate   time.Time `json:"paymentDate"`
	CreatedAt     time.Time `json:"createdAt"`
	Image1Present bool      `json:"image1Present"`
	Image2Present bool      `json:"image2Present"`
	SelfiePresent bool      `json:"selfiePresent"`
	Approved      bool      `json:"approved"`
	ApprovedBy    string    `json:"approved_by,omitempty"`
	BankDate      string    `json:"bankDate,omitempty"`
	BankUTR       string    `json:"bankUtr,omitempty"`
	Status        string    `json:"status"`
}

// Page is one fetched page of records plus pagination metadata.
type Page struct {
	Records    []Record          `json:"records"`
	Pagination shared.Pagination `json:"pagination"`
}

var wireTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseWireTime(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	for _, layout := range wireTimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}

// NormalizeRecord converts a raw upstream row into console form.
// Blank or whitespace-only vehicle numbers become the "NA" sentinel,
// and missing approval fields default to pending so pre-approval-era
// rows behave like any other pending record.
func NormalizeRecord(raw upstream.Collection) Record {
	vehicle := strings.TrimSpace(raw.VehicleNumber)
	if vehicle == "" {
		vehicle = VehicleNumberNA
	}
	approved := false
	if raw.Approved != nil {
		approved = *raw.Approved
	}
	approvedBy := ""
	if raw.ApprovedBy != nil {
		approvedBy = *raw.ApprovedBy
	}
	return Record{
		ID:            raw.ID,
		CustomerName:  raw.CustomerName,
		VehicleNumber: vehicle,
		ContactNumber: raw.ContactNumber,
		LoanID:        raw.LoanID,
		Partner:       raw.Partner,
		CollectedBy:   raw.CollectedBy,
		Amount:        raw.Amount,
		PaymentMode:   raw.PaymentMode,
		PaymentRef:    raw.PaymentRef,
		PaymentDate:   parseWireTime(raw.PaymentDate),
		CreatedAt:     parseWireTime(raw.CreatedAt),
		Image1Present: raw.Image1Present,
		Image2Present: raw.Image2Present,
		SelfiePresent: raw.SelfiePresent,
		Approved:      approved,
		ApprovedBy:    approvedBy,
		BankDate:      raw.BankDate,
		BankUTR:       raw.BankUTR,
		Status:        raw.Status,
	}
}

// DataQualityIssue reports a payment date recorded after ingestion.
// Such rows are surfaced, never rejected.
func (r Record) DataQualityIssue() bool {
	if r.PaymentDate.IsZero() || r.CreatedAt.IsZero() {
		return false
	}
	return r.PaymentDate.After(r.CreatedAt)
}
