package gateway

// Request is a statement submitted by the client.
type Request struct {
	SQL string `json:"sql"`
}

// Response is the envelope returned for every query, successful or not.
//
// On failure Columns and Rows are empty and Error holds the message.
// On success Error is nil.
type Response struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
	Error   *string    `json:"error"`
}

// ErrorResponse creates the envelope of a failed query.
func ErrorResponse(err error) Response {
	message := err.Error()

	return Response{
		Columns: []string{},
		Rows:    [][]string{},
		Error:   &message,
	}
}
