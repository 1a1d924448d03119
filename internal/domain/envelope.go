package domain

// StatusSuccess is the header status of a successful analysis response.
const StatusSuccess = "success"

// Envelope is the request/response tree exchanged with the analysis service.
type Envelope struct {
	Header map[string]any `json:"header"`
	Body   any            `json:"body"`
}

// Status returns header.status, or "" when absent.
func (e *Envelope) Status() string {
	if e == nil || e.Header == nil {
		return ""
	}
	s, _ := e.Header["status"].(string)
	return s
}

// OK reports whether the service answered with a success status.
func (e *Envelope) OK() bool {
	return e.Status() == StatusSuccess
}

// BodyField returns a top-level field of an object body.
func (e *Envelope) BodyField(key string) (any, bool) {
	if e == nil {
		return nil, false
	}
	m, ok := e.Body.(map[string]any)
	if !ok {
		return nil, false
	}
	v, ok := m[key]
	return v, ok
}

// PendingArticle is a stored news or report row still waiting for analysis.
type PendingArticle struct {
	ID         int64   `db:"id"`
	CrawlingID string  `db:"crawling_id"`
	Kind       string  `db:"kind"`
	Tag        *string `db:"tag"`
	Title      *string `db:"title"`
	Content    *string `db:"content"`
}
