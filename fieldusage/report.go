package fieldusage

// type Report is the summary of a field usage result.
type Report struct {
	Indices    []string `json:"indices"`
	FieldCount int      `json:"field_count"`
	Accessed   Result   `json:"accessed"`
	Unaccessed Result   `json:"unaccessed"`
}

// NewReport partitions result into accessed (count > 0) and unaccessed fields, preserving order.
func NewReport(indices []string, result Result) *Report {

	r := &Report{
		Indices:    indices,
		FieldCount: len(result),
		Accessed:   make(Result, 0),
		Unaccessed: make(Result, 0),
	}

	for _, fc := range result {

		if fc.Count == 0 {
			r.Unaccessed = append(r.Unaccessed, fc)
		} else {
			r.Accessed = append(r.Accessed, fc)
		}
	}

	return r
}
