package schema

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
)

const tokenLength = 40

// probeUserAgents are load-balancer / orchestrator health checkers whose
// empty POSTs are expected traffic, not bad requests.
var probeUserAgents = []string{"ELB-HealthChecker", "kube-probe", "GoogleHC"}

// UserLookup resolves a caller token to a username. found is false when the
// token is well-formed but unknown; err means the lookup itself failed.
type UserLookup interface {
	LookupUser(ctx context.Context, token string) (username string, found bool, err error)
}

// RequestMeta is the header-derived context the checker needs alongside the
// raw body.
type RequestMeta struct {
	UserAgent string
	Origin    string // declared origin host, if any
}

type Checker struct {
	schema FieldSchema
	known  Enumerations
	users  UserLookup
	origin OriginPolicy
}

func NewChecker(schema FieldSchema, known Enumerations, users UserLookup, origin OriginPolicy) *Checker {
	return &Checker{schema: schema, known: known, users: users, origin: origin}
}

// Check vets a posted payload. It returns the parsed payload unchanged on
// acceptance, a Rejection when the payload fails the contract, or an error
// when a collaborator (the identity service) is unavailable.
//
// All compulsory-field failures are accumulated before returning, in
// schema-declared order. Unknown fields and out-of-enumeration values only
// produce warnings.
func (c *Checker) Check(ctx context.Context, body []byte, meta RequestMeta) (map[string]any, *Rejection, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		if isProbe(meta.UserAgent) {
			return nil, reject(KindProbe, "health check probe"), nil
		}
		log.Printf("schema: received request but no payload found")
		return nil, reject(KindEmptyPayload, "No payload found. You must submit a POST request"), nil
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		log.Printf("schema: payload is not valid JSON: %v", err)
		return nil, reject(KindMalformedPayload, "Invalid JSON payload"), nil
	}

	for name := range payload {
		if !c.schema.Recognized(name) {
			log.Printf("schema: unexpected %s field in payload", name)
		}
	}

	var errList []string
	kind := KindEmptyField
	for _, name := range c.schema.Compulsory {
		v, ok := payload[name]
		switch {
		case !ok:
			log.Printf("schema: missing %s in payload", name)
			errList = append(errList, "Missing "+name)
			kind = KindMissingField
		case isEmpty(v):
			log.Printf("schema: empty %s field in payload", name)
			errList = append(errList, "Empty "+name+" field")
		}
	}
	if len(errList) > 0 {
		return nil, reject(kind, strings.Join(errList, ", ")), nil
	}

	c.warnUnknownValues(payload)

	if opts, ok := payload["options"].(map[string]any); ok {
		for name := range opts {
			if !c.schema.RecognizedOption(name) {
				log.Printf("schema: unexpected %s option field in payload", name)
			}
		}
	}

	if rej, err := c.checkIdentity(ctx, payload, meta); rej != nil || err != nil {
		return nil, rej, err
	}

	return payload, nil, nil
}

func (c *Checker) warnUnknownValues(payload map[string]any) {
	if subject := subjectOf(payload); subject != "" && !contains(c.known.ResourceSubjects, subject) {
		log.Printf("schema: unknown %q resource subject in payload", subject)
	}
	if v, ok := payload["input_format"].(string); ok && !contains(c.known.InputFormats, v) {
		log.Printf("schema: unknown %q input format in payload", v)
	}
	if v, ok := payload["output_format"].(string); ok && !contains(c.known.OutputFormats, v) {
		log.Printf("schema: unknown %q output format in payload", v)
	}
}

// checkIdentity applies the token-first identity policy: a supplied token
// must be well-formed and resolve to a known user; without one the request
// must come from an allow-listed origin.
func (c *Checker) checkIdentity(ctx context.Context, payload map[string]any, meta RequestMeta) (*Rejection, error) {
	token, _ := payload["user_token"].(string)
	if token != "" {
		if len(token) != tokenLength {
			log.Printf("schema: invalid user token %q in payload", token)
			return reject(KindInvalidToken, fmt.Sprintf("Invalid user token '%s'", token)), nil
		}
		username, found, err := c.users.LookupUser(ctx, token)
		if err != nil {
			return nil, fmt.Errorf("identity lookup: %w", err)
		}
		if !found {
			log.Printf("schema: unknown user token %q in payload", token)
			return reject(KindUnknownToken, fmt.Sprintf("Unknown user token '%s'", token)), nil
		}
		log.Printf("schema: token resolved to user %q", username)
		return nil, nil
	}

	if !c.origin.Allowed(meta.Origin) {
		log.Printf("schema: unauthorized origin %q", meta.Origin)
		return reject(KindUnauthorizedOrigin, fmt.Sprintf("Unauthorized origin '%s'", meta.Origin)), nil
	}
	return nil, nil
}

// SubjectOf returns the payload's resource subject, honoring both the
// resource_type and resource_subject spellings.
func SubjectOf(payload map[string]any) string { return subjectOf(payload) }

func subjectOf(payload map[string]any) string {
	if v, ok := payload["resource_type"].(string); ok && v != "" {
		return v
	}
	v, _ := payload["resource_subject"].(string)
	return v
}

func isProbe(userAgent string) bool {
	for _, p := range probeUserAgents {
		if strings.HasPrefix(userAgent, p) {
			return true
		}
	}
	return false
}

// isEmpty mirrors the permissive falsiness the payload contract expects for
// arbitrary JSON values.
func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case bool:
		return !t
	case float64:
		return t == 0
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	default:
		return false
	}
}
