package infra

import (
	"errors"
	"sync"
	"time"
)

// Circuit breaker guarding calls to the SUNAT emission sidecar.
//
// Only transport-level failures count against the breaker: timeouts,
// connection refusals, sidecar 5xx. A SUNAT rejection ("R") is a valid
// business answer. Emitir returns it as a response, not an error, so it
// never trips the circuit.
//
// State is derived, not stored: the breaker is open while the current
// open window (started at abiertoDesde) has not yet elapsed, half-open
// once it has, and closed when no window is active. Half-open admits a
// single in-flight trial call; concurrent callers fast-fail until it resolves.

// CBState is the derived breaker state, exposed for health reporting.
type CBState int

const (
	CBClosed CBState = iota
	CBOpen
	CBHalfOpen
)

func (s CBState) String() string {
	switch s {
	case CBClosed:
		return "closed"
	case CBOpen:
		return "open"
	case CBHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrCircuitOpen is returned by Execute when the breaker refuses the call.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreakerConfig holds the tunables.
type CircuitBreakerConfig struct {
	FailureThreshold int           // consecutive failures before opening
	SuccessThreshold int           // consecutive trial successes before closing
	OpenTimeout      time.Duration // open window before trial calls resume
}

// DefaultCBConfig matches the SUNAT sidecar's recovery profile: five
// straight transport failures means it is down, a minute covers its
// container restart, and two clean calls confirm it is back.
func DefaultCBConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		OpenTimeout:      60 * time.Second,
	}
}

type CircuitBreaker struct {
	cfg CircuitBreakerConfig

	mu             sync.Mutex
	fallosSeguidos int
	sondasExitosas int
	abiertoDesde   time.Time // zero while closed
	sondaEnCurso   bool
}

func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	def := DefaultCBConfig()
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = def.FailureThreshold
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = def.SuccessThreshold
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = def.OpenTimeout
	}
	return &CircuitBreaker{cfg: cfg}
}

// estado derives the state at now. Callers hold mu.
func (cb *CircuitBreaker) estado(now time.Time) CBState {
	if cb.abiertoDesde.IsZero() {
		return CBClosed
	}
	if now.Sub(cb.abiertoDesde) < cb.cfg.OpenTimeout {
		return CBOpen
	}
	return CBHalfOpen
}

// State reports the current state. Safe for concurrent use.
func (cb *CircuitBreaker) State() CBState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.estado(time.Now())
}

// Execute runs fn if the breaker admits the call. fn's own error is
// returned unchanged; ErrCircuitOpen means fn never ran.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	cb.mu.Lock()
	switch cb.estado(time.Now()) {
	case CBOpen:
		cb.mu.Unlock()
		return ErrCircuitOpen
	case CBHalfOpen:
		if cb.sondaEnCurso {
			cb.mu.Unlock()
			return ErrCircuitOpen
		}
		cb.sondaEnCurso = true
	}
	cb.mu.Unlock()

	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()
	estado := cb.estado(time.Now())
	cb.sondaEnCurso = false
	if err != nil {
		cb.registrarFallo(estado)
		return err
	}
	cb.registrarExito(estado)
	return nil
}

// registrarFallo and registrarExito run under mu.

func (cb *CircuitBreaker) registrarFallo(estado CBState) {
	if estado == CBHalfOpen {
		// Trial call failed: restart the open window from now.
		cb.abiertoDesde = time.Now()
		cb.sondasExitosas = 0
		return
	}
	cb.fallosSeguidos++
	if cb.fallosSeguidos >= cb.cfg.FailureThreshold {
		cb.abiertoDesde = time.Now()
		cb.sondasExitosas = 0
	}
}

func (cb *CircuitBreaker) registrarExito(estado CBState) {
	if estado == CBHalfOpen {
		cb.sondasExitosas++
		if cb.sondasExitosas >= cb.cfg.SuccessThreshold {
			cb.abiertoDesde = time.Time{}
			cb.fallosSeguidos = 0
			cb.sondasExitosas = 0
		}
		return
	}
	cb.fallosSeguidos = 0
}
