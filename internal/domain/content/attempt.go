package content

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"clinic-content-gateway/internal/platform/httpclient"
	"clinic-content-gateway/internal/platform/logger"

	"github.com/hashicorp/go-multierror"
)

var (
	ErrMissingParameter  = errors.New("contentIdentifier or accessToken is required")
	ErrAllAttemptsFailed = errors.New("all retrieval attempts failed")
	ErrUpstreamTimeout   = errors.New("upstream timeout")
)

type Phase string

const (
	PhaseProvider Phase = "provider"
	PhaseGateway  Phase = "gateway"
)

type Outcome string

const (
	OutcomeSuccess        Outcome = "success"
	OutcomeHTTPError      Outcome = "http_error"
	OutcomeTransportError Outcome = "transport_error"
	OutcomeTimeout        Outcome = "timeout"
)

// Candidate es un (endpoint, formato) a intentar.
type Candidate struct {
	Phase    Phase
	Source   string // gateway o estrategia
	Endpoint string // URL real que se pide
	Format   string // "" => sin hint
}

// Attempt es el registro efímero de un Candidate ya intentado.
type Attempt struct {
	Candidate
	Outcome    Outcome
	StatusCode int
	Err        string
	Duration   time.Duration
}

// AllAttemptsFailedError se devuelve cuando se agotó toda la cadena.
type AllAttemptsFailedError struct {
	Identifier string
	Attempts   []Attempt
	LastErr    error

	errs *multierror.Error
}

func (e *AllAttemptsFailedError) Error() string {
	last := "no candidates"
	if e.LastErr != nil {
		last = e.LastErr.Error()
	}
	return fmt.Sprintf("%s for %s after %d attempts (last: %s)", ErrAllAttemptsFailed, e.Identifier, len(e.Attempts), last)
}

func (e *AllAttemptsFailedError) Is(target error) bool { return target == ErrAllAttemptsFailed }

// Unwrap expone el agregado de errores por intento.
func (e *AllAttemptsFailedError) Unwrap() error { return e.errs.ErrorOrNil() }

func (e *AllAttemptsFailedError) AttemptedURLs() []string {
	out := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		out = append(out, a.Endpoint)
	}
	return out
}

// FetchFunc hace un request acotado por el ctx que recibe.
type FetchFunc func(ctx context.Context) (*httpclient.Response, error)

// TryFunc ejecuta un Candidate con su timeout y lo registra.
// Devuelve la respuesta y true solo si fue 2xx.
type TryFunc func(ctx context.Context, c Candidate, fetch FetchFunc) (*httpclient.Response, bool)

// sweep acumula los intentos de una sola recuperación. No se comparte.
type sweep struct {
	id       string
	timeouts map[Phase]time.Duration
	log      logger.Logger
	metrics  *Metrics

	attempts []Attempt
	errs     *multierror.Error
	last     error
}

func (s *sweep) try(ctx context.Context, c Candidate, fetch FetchFunc) (*httpclient.Response, bool) {
	timeout := s.timeouts[c.Phase]
	actx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	resp, err := fetch(actx)
	a := Attempt{Candidate: c, Duration: time.Since(start)}
	if resp != nil {
		a.StatusCode = resp.StatusCode
	}

	switch {
	case err == nil && resp != nil && resp.StatusCode >= 200 && resp.StatusCode < 300:
		a.Outcome = OutcomeSuccess
	case err == nil:
		a.Outcome = OutcomeHTTPError
		err = fmt.Errorf("%s: unexpected response", c.Endpoint)
	case ctx.Err() == nil && (errors.Is(err, context.DeadlineExceeded) || errors.Is(actx.Err(), context.DeadlineExceeded)):
		a.Outcome = OutcomeTimeout
		err = fmt.Errorf("%w: %s after %s", ErrUpstreamTimeout, c.Endpoint, timeout)
	case httpclient.StatusOf(err) != 0:
		a.Outcome = OutcomeHTTPError
		a.StatusCode = httpclient.StatusOf(err)
		err = fmt.Errorf("%s: %w", c.Endpoint, err)
	default:
		a.Outcome = OutcomeTransportError
		err = fmt.Errorf("%s: %w", c.Endpoint, err)
	}

	if err != nil {
		a.Err = err.Error()
		s.errs = multierror.Append(s.errs, err)
		s.last = err
	}
	s.attempts = append(s.attempts, a)
	s.metrics.attempt(c.Phase, a.Outcome)

	s.log.Debug("retrieval attempt", map[string]any{
		"cid":      s.id,
		"phase":    string(c.Phase),
		"source":   c.Source,
		"url":      c.Endpoint,
		"format":   formatLabel(c.Format),
		"outcome":  string(a.Outcome),
		"status":   a.StatusCode,
		"duration": a.Duration.String(),
	})

	return resp, a.Outcome == OutcomeSuccess
}

func (s *sweep) failed() *AllAttemptsFailedError {
	return &AllAttemptsFailedError{
		Identifier: s.id,
		Attempts:   s.attempts,
		LastErr:    s.last,
		errs:       s.errs,
	}
}

func formatLabel(f string) string {
	if strings.TrimSpace(f) == "" {
		return "none"
	}
	return f
}
