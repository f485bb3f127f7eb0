package schema

// Rejection kinds. Rejections are values, not errors: they terminate the
// request with a structured 400 (or 200 for probes) and never escalate.
const (
	KindProbe              = "probe_request"
	KindEmptyPayload       = "empty_payload"
	KindMalformedPayload   = "malformed_payload"
	KindMissingField       = "missing_field"
	KindEmptyField         = "empty_field"
	KindInvalidToken       = "invalid_token"
	KindUnknownToken       = "unknown_token"
	KindUnauthorizedOrigin = "unauthorized_origin"
)

// Rejection explains why a payload was not accepted. Message is what the
// caller sees in the response's error field.
type Rejection struct {
	Kind    string
	Message string
}

// Benign reports whether this rejection is expected traffic (a monitoring
// probe) rather than a bad request.
func (r *Rejection) Benign() bool { return r.Kind == KindProbe }

func reject(kind, message string) *Rejection {
	return &Rejection{Kind: kind, Message: message}
}
