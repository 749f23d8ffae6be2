package health

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"chatbot-demo/backend/pkg/logger"
)

// Status represents the health status of a component
type Status string

const (
	// StatusUp indicates a component is working correctly
	StatusUp Status = "up"
	// StatusDown indicates a component is not working
	StatusDown Status = "down"
)

// Component represents a system component that can be health-checked
type Component struct {
	Name        string    `json:"name"`
	Status      Status    `json:"status"`
	Description string    `json:"description,omitempty"`
	Error       string    `json:"error,omitempty"`
	LastChecked time.Time `json:"last_checked"`
}

// Check represents a health check function
type Check func() (Status, string, error)

// Checker manages health checks for the system
type Checker struct {
	checks      map[string]Check
	components  map[string]*Component
	checkPeriod time.Duration
	mutex       sync.RWMutex
	log         *logger.Logger
}

// NewChecker creates a new health checker
func NewChecker(log *logger.Logger, checkPeriod time.Duration) *Checker {
	checker := &Checker{
		checks:      make(map[string]Check),
		components:  make(map[string]*Component),
		checkPeriod: checkPeriod,
		log:         log,
	}

	checker.RegisterCheck("self", func() (Status, string, error) {
		return StatusUp, "Health checker is running", nil
	})

	return checker
}

// RegisterCheck registers a new health check
func (c *Checker) RegisterCheck(name string, check Check) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.checks[name] = check
	c.components[name] = &Component{
		Name:        name,
		Status:      StatusDown,
		Description: "Not checked yet",
		LastChecked: time.Time{},
	}
}

// RegisterDatabaseCheck registers a database health check
func (c *Checker) RegisterDatabaseCheck(checkFunc func() error) {
	c.RegisterCheck("database", func() (Status, string, error) {
		if err := checkFunc(); err != nil {
			return StatusDown, "Database connection failed", err
		}
		return StatusUp, "Database connection is established", nil
	})
}

// RunChecks executes all registered health checks
func (c *Checker) RunChecks() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	for name, check := range c.checks {
		status, description, err := check()

		component := c.components[name]
		component.Status = status
		component.Description = description
		component.LastChecked = time.Now()

		if err != nil {
			component.Error = err.Error()
			c.log.Error("Health check failed",
				"component", name,
				"status", string(status),
				"error", err.Error(),
			)
		} else {
			component.Error = ""
		}
	}
}

// Start runs all checks once, then begins periodic re-checks
func (c *Checker) Start() {
	c.RunChecks()

	go func() {
		ticker := time.NewTicker(c.checkPeriod)
		defer ticker.Stop()

		for range ticker.C {
			c.RunChecks()
		}
	}()
}

// GetStatus returns the current health status
func (c *Checker) GetStatus() map[string]*Component {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	// Create a copy to avoid race conditions
	result := make(map[string]*Component, len(c.components))
	for k, v := range c.components {
		componentCopy := *v
		result[k] = &componentCopy
	}

	return result
}

// IsSystemHealthy returns true if all critical components are up
func (c *Checker) IsSystemHealthy() bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	for _, component := range c.components {
		if component.Status == StatusDown && component.Name == "database" {
			return false
		}
	}

	return true
}

// HTTPHandler returns an HTTP handler for health checks
func (c *Checker) HTTPHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := c.GetStatus()

		w.Header().Set("Content-Type", "application/json")

		if !c.IsSystemHealthy() {
			w.WriteHeader(http.StatusServiceUnavailable)
		} else {
			w.WriteHeader(http.StatusOK)
		}

		response := map[string]interface{}{
			"status":     "ok",
			"timestamp":  time.Now(),
			"components": status,
		}

		if err := json.NewEncoder(w).Encode(response); err != nil {
			c.log.Error("Failed to encode health check response", "error", err.Error())
		}
	}
}
