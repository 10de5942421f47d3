package paypal

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	// LiveURL and SandboxURL are the webscr endpoints the round-trip
	// verification is posted to.
	LiveURL    = "https://www.paypal.com/cgi-bin/webscr"
	SandboxURL = "https://www.sandbox.paypal.com/cgi-bin/webscr"

	ipnVerified = "VERIFIED"
	pdtSuccess  = "SUCCESS"
)

// Settings resolves the gateway configuration at call time so deployment
// overrides (sandbox flag, PDT identity token) take effect without a restart.
type Settings interface {
	Endpoint() string
	PdtToken() string
}

// Verifier performs the authenticity round-trip for inbound notifications.
// The gateway is untrusted network I/O: every failure mode collapses to an
// untrusted verdict, never an error.
type Verifier struct {
	settings Settings
	client   *http.Client
	log      *zap.SugaredLogger
}

func NewVerifier(settings Settings, timeout time.Duration, log *zap.SugaredLogger) *Verifier {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Verifier{
		settings: settings,
		client:   &http.Client{Timeout: timeout},
		log:      log,
	}
}

// VerifyIPN echoes the raw notification body back to the gateway prefixed
// with the validate command and trusts it only on the literal VERIFIED reply.
// The parsed field map is returned either way so failed attempts stay
// auditable.
func (v *Verifier) VerifyIPN(ctx context.Context, rawBody string) (bool, map[string]string) {
	fields := ParseFields(rawBody)

	body := "cmd=_notify-validate&" + rawBody
	resp, err := v.post(ctx, strings.NewReader(body))
	if err != nil {
		v.log.Warnw("ipn_verify_request_failed", "error", err)
		return false, fields
	}
	return strings.TrimSpace(resp) == ipnVerified, fields
}

// GetPDTDetails exchanges the return-redirect token for the transaction
// details. The reply's first line must be SUCCESS; the remaining lines are
// URL-encoded key=value pairs. The raw reply is returned for audit notes on
// failure.
func (v *Verifier) GetPDTDetails(ctx context.Context, tx string) (bool, map[string]string, string) {
	form := url.Values{
		"cmd": {"_notify-synch"},
		"at":  {v.settings.PdtToken()},
		"tx":  {tx},
	}
	raw, err := v.post(ctx, strings.NewReader(form.Encode()))
	if err != nil {
		v.log.Warnw("pdt_request_failed", "tx", tx, "error", err)
		return false, map[string]string{}, ""
	}

	lines := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")
	trusted := len(lines) > 0 && strings.TrimSpace(lines[0]) == pdtSuccess

	fields := make(map[string]string)
	for _, line := range lines[1:] {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		if unescaped, err := url.QueryUnescape(value); err == nil {
			value = unescaped
		}
		fields[key] = value
	}
	return trusted, fields, raw
}

func (v *Verifier) post(ctx context.Context, body io.Reader) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.settings.Endpoint(), body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := v.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(respBody), nil
}

// ParseFields decodes a URL-form-encoded notification body into a flat map.
// Malformed pairs are dropped rather than failing the whole body.
func ParseFields(rawBody string) map[string]string {
	values, _ := url.ParseQuery(rawBody)
	fields := make(map[string]string, len(values))
	for key, vs := range values {
		if len(vs) > 0 {
			fields[key] = vs[0]
		}
	}
	return fields
}
