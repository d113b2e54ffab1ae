package validation

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/uniconnect/backend/internal/logger"
	"go.uber.org/zap"
)

// ServiceCheck probes one backing service
type ServiceCheck func(ctx context.Context) error

// ServiceValidator runs startup checks for the services listed as required.
// Services that are not required degrade at runtime instead of blocking boot.
type ServiceValidator struct {
	requiredServices []string
	checks           map[string]ServiceCheck
	timeout          time.Duration
}

// NewServiceValidator creates a new service validator
func NewServiceValidator(required []string) *ServiceValidator {
	normalized := make([]string, 0, len(required))
	for _, name := range required {
		name = strings.ToLower(strings.TrimSpace(name))
		if name != "" {
			normalized = append(normalized, name)
		}
	}
	return &ServiceValidator{
		requiredServices: normalized,
		checks:           make(map[string]ServiceCheck),
		timeout:          10 * time.Second,
	}
}

// Register adds a named check
func (sv *ServiceValidator) Register(name string, check ServiceCheck) {
	sv.checks[strings.ToLower(name)] = check
}

// ValidateServices validates every required service and fails on the first
// unreachable one
func (sv *ServiceValidator) ValidateServices(ctx context.Context) error {
	if len(sv.requiredServices) == 0 {
		logger.Log.Info("No required services configured for validation")
		return nil
	}

	logger.Log.Info("Validating required services", zap.Strings("services", sv.requiredServices))

	for _, name := range sv.requiredServices {
		check, ok := sv.checks[name]
		if !ok {
			logger.Log.Warn("Unknown service type in validation", zap.String("service", name))
			continue
		}

		timeoutCtx, cancel := context.WithTimeout(ctx, sv.timeout)
		err := check(timeoutCtx)
		cancel()
		if err != nil {
			logger.Log.Error("Required service validation failed",
				zap.String("service", name),
				zap.Error(err),
			)
			return fmt.Errorf("required service %q validation failed: %w", name, err)
		}

		logger.Log.Info("Service validated successfully", zap.String("service", name))
	}

	logger.Log.Info("All required services validated successfully")
	return nil
}

// HTTPCheck returns a check that expects a non-5xx response from url
func HTTPCheck(client *http.Client, url string) ServiceCheck {
	return func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return fmt.Errorf("failed to create health check request: %w", err)
		}
		resp, err := client.Do(req)
		if err != nil {
			return fmt.Errorf("failed to connect to %s: %w", url, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode >= http.StatusInternalServerError {
			return fmt.Errorf("%s returned status %d", url, resp.StatusCode)
		}
		return nil
	}
}
