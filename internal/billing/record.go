package billing

// BillRecord is the normalized outcome of extracting one invoice document.
// An empty field means "not determinable"; the caller decides whether to
// proceed. DueAmount is the literal numeric substring from the answer, no
// currency normalization or rounding. DueDate is a DD/MM/YYYY string.
type BillRecord struct {
	DueDate   string `json:"due_date"`
	DueAmount string `json:"due_amount"`
}

// Complete reports whether both fields were determined. Reminder creation is
// skipped for incomplete records.
func (r BillRecord) Complete() bool {
	return r.DueDate != "" && r.DueAmount != ""
}
