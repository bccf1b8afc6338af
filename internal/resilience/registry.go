package resilience

import (
	"sort"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
)

// EndpointHealth is the observed health of one monitored endpoint host.
type EndpointHealth struct {
	// Host is the endpoint host (host[:port]).
	Host string

	// CircuitState is the current circuit breaker state for the host.
	CircuitState gobreaker.State

	// Counts contains circuit breaker statistics.
	Counts gobreaker.Counts

	// LastSuccessAt is the timestamp of the last answered check.
	LastSuccessAt *time.Time

	// LastFailureAt is the timestamp of the last transport failure.
	LastFailureAt *time.Time

	// LastLatency is the duration of the last answered check.
	LastLatency time.Duration

	// LastError is the most recent error message, if any.
	LastError string
}

// IsHealthy returns true if the endpoint circuit is closed.
func (h *EndpointHealth) IsHealthy() bool {
	return h.CircuitState == gobreaker.StateClosed
}

// IsDegraded returns true if the endpoint circuit is half-open.
func (h *EndpointHealth) IsDegraded() bool {
	return h.CircuitState == gobreaker.StateHalfOpen
}

// IsUnhealthy returns true if the endpoint circuit is open.
func (h *EndpointHealth) IsUnhealthy() bool {
	return h.CircuitState == gobreaker.StateOpen
}

// Registry tracks observed endpoints of a client and their last outcomes.
type Registry struct {
	client *Client

	mu        sync.RWMutex
	endpoints map[string]*endpointStats
}

type endpointStats struct {
	lastSuccessAt *time.Time
	lastFailureAt *time.Time
	lastLatency   time.Duration
	lastError     string
}

// NewRegistry creates a registry reporting circuit states from client.
func NewRegistry(client *Client) *Registry {
	return &Registry{
		client:    client,
		endpoints: make(map[string]*endpointStats),
	}
}

func (r *Registry) stats(host string) *endpointStats {
	s, ok := r.endpoints[host]
	if !ok {
		s = &endpointStats{}
		r.endpoints[host] = s
	}
	return s
}

// RecordSuccess records an answered request for an endpoint.
func (r *Registry) RecordSuccess(host string, latency time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	s := r.stats(host)
	s.lastSuccessAt = &now
	s.lastLatency = latency
}

// RecordFailure records a failed request for an endpoint.
func (r *Registry) RecordFailure(host string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	s := r.stats(host)
	s.lastFailureAt = &now
	if err != nil {
		s.lastError = err.Error()
	}
}

// Forget removes an endpoint from the registry.
func (r *Registry) Forget(host string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.endpoints, host)
}

// GetHealth returns the health of an endpoint, or nil if it was never observed.
func (r *Registry) GetHealth(host string) *EndpointHealth {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.endpoints[host]
	if !ok {
		return nil
	}
	return r.health(host, s)
}

// GetAllHealth returns the health of all observed endpoints ordered by host.
func (r *Registry) GetAllHealth() []*EndpointHealth {
	r.mu.RLock()
	defer r.mu.RUnlock()

	health := make([]*EndpointHealth, 0, len(r.endpoints))
	for host, s := range r.endpoints {
		health = append(health, r.health(host, s))
	}
	sort.Slice(health, func(i, j int) bool { return health[i].Host < health[j].Host })
	return health
}

// Hosts returns the observed endpoint hosts.
func (r *Registry) Hosts() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	hosts := make([]string, 0, len(r.endpoints))
	for host := range r.endpoints {
		hosts = append(hosts, host)
	}
	sort.Strings(hosts)
	return hosts
}

func (r *Registry) health(host string, s *endpointStats) *EndpointHealth {
	h := &EndpointHealth{
		Host:          host,
		CircuitState:  gobreaker.StateClosed,
		LastSuccessAt: s.lastSuccessAt,
		LastFailureAt: s.lastFailureAt,
		LastLatency:   s.lastLatency,
		LastError:     s.lastError,
	}
	if r.client != nil {
		h.CircuitState = r.client.CircuitBreakerState(host)
		h.Counts = r.client.CircuitBreakerCounts(host)
	}
	return h
}
