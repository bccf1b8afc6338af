package network

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"net"
	"net/url"
	"syscall"

	"github.com/statusboard/statusboard/internal/resilience"
)

// TransportError is a status check that produced no HTTP response.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return "status check " + e.URL + ": " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Short descriptions shown next to the warning glyph.
const (
	DescTimedOut      = "Timed out"
	DescHostNotFound  = "Cannot find host"
	DescRefused       = "Connection refused"
	DescSecureFailed  = "Secure connection failed"
	DescBadURL        = "Bad URL"
	DescCancelled     = "Cancelled"
	DescCircuitOpen   = "Service unavailable (circuit open)"
	DescNetworkFailed = "Network error"
)

// ErrInvalidURL is returned for URLs that cannot be checked.
var ErrInvalidURL = errors.New("invalid service url")

// Describe returns a short, user-facing description of a status check error.
func Describe(err error) string {
	if err == nil {
		return ""
	}

	var (
		dnsErr    *net.DNSError
		urlErr    *url.Error
		certErr   *tls.CertificateVerificationError
		unknownCA x509.UnknownAuthorityError
		hostErr   x509.HostnameError
		recordErr tls.RecordHeaderError
	)

	switch {
	case errors.Is(err, resilience.ErrCircuitOpen):
		return DescCircuitOpen
	case errors.Is(err, ErrInvalidURL):
		return DescBadURL
	case errors.Is(err, context.Canceled):
		return DescCancelled
	case errors.Is(err, context.DeadlineExceeded), isTimeout(err):
		return DescTimedOut
	case errors.As(err, &dnsErr):
		return DescHostNotFound
	case errors.Is(err, syscall.ECONNREFUSED):
		return DescRefused
	case errors.As(err, &certErr), errors.As(err, &unknownCA), errors.As(err, &hostErr), errors.As(err, &recordErr):
		return DescSecureFailed
	case errors.As(err, &urlErr) && urlErr.Op == "parse":
		return DescBadURL
	default:
		return DescNetworkFailed
	}
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
