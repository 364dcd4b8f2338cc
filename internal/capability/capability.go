// Package capability records what the connected MCP client can do.
//
// Sampling support is probed exactly once, when the protocol session is
// initialized; the detected value is read-only for the rest of the session.
// Reads that happen before detection completes observe "unsupported" rather
// than waiting — a pending probe must never block a request.
package capability

import (
	"sync"
	"time"
)

// Sampling describes the client's server-initiated LLM call capability.
type Sampling struct {
	Supported     bool      `json:"supported"`
	DetectedAt    time.Time `json:"detected_at,omitempty"`
	ClientName    string    `json:"client_name,omitempty"`
	ClientVersion string    `json:"client_version,omitempty"`
}

// Detector captures the sampling capability from the initialize handshake.
type Detector struct {
	mu       sync.RWMutex
	detected bool
	sampling Sampling
}

// NewDetector returns a Detector in the pre-handshake state.
func NewDetector() *Detector { return &Detector{} }

// Observe records the handshake result. Only the first observation counts —
// the capability is never re-probed mid-session.
func (d *Detector) Observe(clientName, clientVersion string, supported bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.detected {
		return
	}
	d.detected = true
	d.sampling = Sampling{
		Supported:     supported,
		DetectedAt:    time.Now().UTC(),
		ClientName:    clientName,
		ClientVersion: clientVersion,
	}
}

// Current returns the detected capability. Before the handshake has been
// observed it returns the zero value, i.e. unsupported.
func (d *Detector) Current() Sampling {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.sampling
}
