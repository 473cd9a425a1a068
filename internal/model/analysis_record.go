package model

// Category classifies a resource by its declared content type.
type Category int

const (
	CategoryUnknown Category = iota
	CategoryReadable
	CategoryNonReadable
)

// String returns the label written to the report.
func (c Category) String() string {
	switch c {
	case CategoryReadable:
		return "readable"
	case CategoryNonReadable:
		return "non_readable"
	default:
		return "Unknown"
	}
}

type ErrorState int

const (
	ErrorNone ErrorState = iota
	ErrorFailed
)

func (e ErrorState) String() string {
	if e == ErrorFailed {
		return "Yes"
	}
	return "No"
}

const UnknownContentType = "Unknown"

type KeywordCount struct {
	Keyword string `json:"keyword"`
	Count   int    `json:"count"`
}

// AnalysisRecord is the outcome of analyzing a single input URL.
// KeywordCounts holds one entry per input keyword, in input order.
type AnalysisRecord struct {
	URL           string         `json:"url"`
	ContentType   string         `json:"content_type"`
	Category      Category       `json:"category"`
	KeywordCounts []KeywordCount `json:"keyword_counts"`
	Error         ErrorState     `json:"error"`
	ErrorDetail   string         `json:"error_detail,omitempty"`
	Encoding      string         `json:"encoding,omitempty"`
	StatusCode    int            `json:"status_code,omitempty"`
}

// Count returns the count of the first entry for keyword.
func (r AnalysisRecord) Count(keyword string) (int, bool) {
	for _, kc := range r.KeywordCounts {
		if kc.Keyword == keyword {
			return kc.Count, true
		}
	}
	return 0, false
}

// FailedRecord builds the record shape shared by every fetch failure.
func FailedRecord(url string, keywords []string, err error) AnalysisRecord {
	detail := "unknown error"
	if err != nil && err.Error() != "" {
		detail = err.Error()
	}
	return AnalysisRecord{
		URL:           url,
		ContentType:   UnknownContentType,
		Category:      CategoryUnknown,
		KeywordCounts: ZeroCounts(keywords),
		Error:         ErrorFailed,
		ErrorDetail:   detail,
	}
}

func ZeroCounts(keywords []string) []KeywordCount {
	counts := make([]KeywordCount, len(keywords))
	for i, kw := range keywords {
		counts[i] = KeywordCount{Keyword: kw}
	}
	return counts
}
