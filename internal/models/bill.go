package models

// CategoryUncategorized stamps items found before any category header,
// and items whose header text maps to no known category code.
const CategoryUncategorized = "UNCATEGORIZED"

// BillLineItem is one billed charge parsed from a bill statement page.
type BillLineItem struct {
	ChargeDate   string  `json:"charge_date"` // DD-MM-YYYY as printed, not validated
	BilledText   string  `json:"billed_text"`
	BilledEntity string  `json:"billed_entity"` // raw category header text
	Category     string  `json:"category"`      // normalized code from the label table
	BilledAmount float64 `json:"billed_amount"`
	SourcePage   int     `json:"source_page"` // 1-based
}

// AdvancePayment is one advance deposit row from the concession section.
type AdvancePayment struct {
	Date          string  `json:"date"`
	ReferenceCode string  `json:"reference_code"`
	Amount        float64 `json:"amount"`
}

// ConcessionSummary carries the page-spanning summary figures. A nil field
// means its labeled pattern never matched anywhere in the document.
type ConcessionSummary struct {
	TotalBillAmount        *float64         `json:"total_bill_amount,omitempty"`
	LessConcession         *float64         `json:"less_concession,omitempty"`
	NetAmount              *float64         `json:"net_amount,omitempty"`
	AdvanceAdjusted        *float64         `json:"advance_adjusted,omitempty"`
	InsuranceAccountAmount *float64         `json:"insurance_account_amount,omitempty"`
	MOUConcession          *float64         `json:"mou_concession,omitempty"`
	PackageConcession      *float64         `json:"package_concession,omitempty"`
	AdvancePayments        []AdvancePayment `json:"advance_payments"`
}

// BillHeader holds the free-text metadata extracted from the first pages of
// a bill. All fields are optional; an entirely empty header is valid.
type BillHeader struct {
	PatientName     string `json:"patient_name"`
	MRDID           string `json:"mrd_id"`
	BillNo          string `json:"bill_no"`
	BillDate        string `json:"bill_date"`
	Company         string `json:"company"`
	AdmittingDoctor string `json:"admitting_doctor"`
	TreatingDoctor  string `json:"treating_doctor"`
	AdmitDate       string `json:"admit_date"`
	DischargeDate   string `json:"discharge_date"`
	WardType        string `json:"ward_type"`
	UMID            string `json:"umid"`
}

// IsEmpty reports whether no header field was extracted.
func (h BillHeader) IsEmpty() bool {
	return h == BillHeader{}
}

// BillDocument is the complete parse result for one bill statement.
type BillDocument struct {
	Items      []BillLineItem    `json:"items"`
	Concession ConcessionSummary `json:"concession"`
	PageCount  int               `json:"page_count"`
}

// TotalBilled sums the billed amounts of all parsed items.
func (d *BillDocument) TotalBilled() float64 {
	var total float64
	for _, item := range d.Items {
		total += item.BilledAmount
	}
	return total
}

// ItemsByCategory groups billed totals by normalized category code.
func (d *BillDocument) ItemsByCategory() map[string]float64 {
	sums := make(map[string]float64)
	for _, item := range d.Items {
		sums[item.Category] += item.BilledAmount
	}
	return sums
}
