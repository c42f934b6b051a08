package rollup

// SummaryRow is one output line of a run.
type SummaryRow struct {
	ServerName     string
	Drive          string
	TopLevelFolder string
	// TotalBytes is kept for typed exports; DataGB is its rendered form.
	TotalBytes     uint64
	DataGB         string
	SubfolderCount int
	FileCount      uint64
}

// Summary is the result of a completed run.
type Summary struct {
	ServerName string
	Rows       []SummaryRow
}

// TotalBytes sums TotalBytes across rows.
func (s Summary) TotalBytes() uint64 {
	var total uint64
	for _, r := range s.Rows {
		total += r.TotalBytes
	}
	return total
}

// TotalFiles sums FileCount across rows.
func (s Summary) TotalFiles() uint64 {
	var total uint64
	for _, r := range s.Rows {
		total += r.FileCount
	}
	return total
}
