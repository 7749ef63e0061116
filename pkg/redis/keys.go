package redis

import "strings"

const keyNamespace = "cafepos"

type keyKind string

const (
	kindIdempotency keyKind = "idempotency"
	kindRateLimit   keyKind = "rate_limit"
	kindCounter     keyKind = "counter"
)

// key joins the namespace, kind and non-blank parts with ":".
func key(kind keyKind, parts ...string) string {
	out := []string{keyNamespace, string(kind)}
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return strings.Join(out, ":")
}

// IdempotencyKey namespaces a client Idempotency-Key under its request scope.
func (c *Client) IdempotencyKey(scope, id string) string {
	return key(kindIdempotency, scope, id)
}

func (c *Client) RateLimitKey(scope string) string {
	return key(kindRateLimit, scope)
}

func (c *Client) CounterKey(name string) string {
	return key(kindCounter, name)
}
