package orcidclient

// Status discriminates the outcome of a remote call that reached the
// registry. Transport failures never produce a Status; they are returned as
// *TransientError instead.
type Status string

const (
	StatusOK       Status = "ok"
	StatusCreated  Status = "created"
	StatusConflict Status = "conflict"
	StatusInvalid  Status = "invalid"
)

type Response struct {
	Status     Status
	HTTPStatus int
	Body       []byte
	// Err is set for StatusConflict and StatusInvalid.
	Err *ResponseError
}

func (r Response) OK() bool {
	return r.Status == StatusOK || r.Status == StatusCreated
}

type PostNewWorkResult struct {
	Response
	Putcode int64
}

type PutUpdatedWorkResult struct {
	Response
}

type WorksSummaryResult struct {
	Response
	Works []WorkSummary
}

// PutcodesFromSource returns the putcodes of works created by the given
// client id, in listing order. An empty client id keeps every work.
func (r WorksSummaryResult) PutcodesFromSource(clientID string) []int64 {
	putcodes := make([]int64, 0, len(r.Works))
	for _, work := range r.Works {
		if clientID != "" && work.SourceClientID != clientID {
			continue
		}
		putcodes = append(putcodes, work.Putcode)
	}
	return putcodes
}

type BulkWorksResult struct {
	Response
	Works []WorkDetail
}
