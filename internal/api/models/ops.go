package models

// Health is the liveness document served by /v1/ops/health.
type Health struct {
	Status    HealthStatus `json:"status"`
	Time      Timestamp    `json:"time"`
	Version   string       `json:"version"`
	BuildTime string       `json:"buildTime"`
	UptimeSec int64        `json:"uptimeSec"`
}

// Readiness lists the outcome of every dependency check.
type Readiness struct {
	Status HealthStatus      `json:"status"`
	Time   Timestamp         `json:"time"`
	Checks []SubsystemStatus `json:"checks"`
}

// SystemStatus is the operator view: dependencies, checked hosts and edit mode.
type SystemStatus struct {
	Status     HealthStatus      `json:"status"`
	Time       Timestamp         `json:"time"`
	Subsystems []SubsystemStatus `json:"subsystems"`
	Endpoints  []EndpointStatus  `json:"endpoints"`
	EditMode   bool              `json:"editMode"`
}

type SubsystemStatus struct {
	Name      string       `json:"name"`
	Status    HealthStatus `json:"status"`
	LatencyMs int64        `json:"latencyMs"`
	Detail    *string      `json:"detail,omitempty"`
}

// EndpointStatus is the circuit breaker view of one checked host.
type EndpointStatus struct {
	Host          string       `json:"host"`
	Status        HealthStatus `json:"status"`
	CircuitState  string       `json:"circuitState"`
	LastSuccessAt *Timestamp   `json:"lastSuccessAt,omitempty"`
	LastFailureAt *Timestamp   `json:"lastFailureAt,omitempty"`
	LastLatencyMs int64        `json:"lastLatencyMs"`
	Message       *string      `json:"message,omitempty"`
}

// Worst returns the more severe of two statuses.
func Worst(a, b HealthStatus) HealthStatus {
	if a.severity() >= b.severity() {
		return a
	}
	return b
}
