package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/angelmondragon/cafepos/api/responses"
	pkgerrors "github.com/angelmondragon/cafepos/pkg/errors"
	"github.com/angelmondragon/cafepos/pkg/logger"
)

// WindowCounter is satisfied by the redis client.
type WindowCounter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// LoginLimits caps login attempts per window. A zero limit disables that counter.
type LoginLimits struct {
	Window     time.Duration
	PerIP      int
	PerCashier int
}

func (l LoginLimits) enabled() bool {
	return l.Window > 0 && (l.PerIP > 0 || l.PerCashier > 0)
}

type loginAttempt struct {
	ip          string
	cashierHash string
}

// LoginRateLimit counts login attempts by client ip and by cashier code. Codes are
// upper-cased and hashed before they become counter keys or log fields.
func LoginRateLimit(limits LoginLimits, counter WindowCounter, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !limits.enabled() || counter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			attempt, err := readAttempt(r, limits.PerCashier > 0)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request"))
				return
			}

			checks := []struct {
				scope string
				value string
				limit int
			}{
				{"ip", attempt.ip, limits.PerIP},
				{"cashier", attempt.cashierHash, limits.PerCashier},
			}
			for _, check := range checks {
				if check.limit <= 0 || check.value == "" {
					continue
				}
				allowed, count, err := counter.FixedWindowAllow(ctx, "login:"+check.scope+":"+check.value, int64(check.limit), limits.Window)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
					return
				}
				if !allowed {
					if logg != nil {
						logg.Warn(logg.WithFields(ctx, map[string]any{
							"limit_scope":    check.scope,
							"limit_key":      check.value,
							"attempts":       count,
							"limit":          check.limit,
							"window_seconds": int(limits.Window.Seconds()),
						}), "login rate limit hit")
					}
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many login attempts; try again later"))
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// readAttempt leaves r.Body readable for the login handler.
func readAttempt(r *http.Request, wantCode bool) (loginAttempt, error) {
	attempt := loginAttempt{ip: clientIP(r)}
	if !wantCode {
		return attempt, nil
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return attempt, err
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	var payload struct {
		CashierCode string `json:"cashier_code"`
	}
	if json.Unmarshal(body, &payload) == nil {
		if code := strings.ToUpper(strings.TrimSpace(payload.CashierCode)); code != "" {
			sum := sha256.Sum256([]byte(code))
			attempt.cashierHash = hex.EncodeToString(sum[:])
		}
	}
	return attempt, nil
}

// clientIP prefers the first X-Forwarded-For hop, then X-Real-IP, then the peer.
func clientIP(r *http.Request) string {
	if first, _, _ := strings.Cut(r.Header.Get("X-Forwarded-For"), ","); strings.TrimSpace(first) != "" {
		return strings.TrimSpace(first)
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
