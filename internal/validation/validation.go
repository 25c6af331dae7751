// Package validation checks, at startup, that the backing services an
// operator marked as required are actually reachable.
package validation

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/yatube/backend/internal/logger"
	"go.uber.org/zap"
)

// KnownServices are the names YATUBE_REQUIRE_<NAME> can refer to
var KnownServices = []string{"database", "redis", "s3", "ses"}

// CheckTimeout bounds each individual service check
const CheckTimeout = 10 * time.Second

// Check probes one service
type Check func(ctx context.Context) error

// ServiceValidator handles validation of optional services
type ServiceValidator struct {
	requiredServices []string
	checks           map[string]Check
}

// NewServiceValidator creates a validator for the required service names.
// A required service with no registered check fails validation: it means the
// service was required but never configured.
func NewServiceValidator(required []string) *ServiceValidator {
	return &ServiceValidator{
		requiredServices: required,
		checks:           make(map[string]Check),
	}
}

// Register adds the probe for a configured service
func (sv *ServiceValidator) Register(name string, check Check) {
	sv.checks[name] = check
}

// ValidateServices runs the check of every required service, stopping at the first failure
func (sv *ServiceValidator) ValidateServices(ctx context.Context) error {
	if len(sv.requiredServices) == 0 {
		logger.Log.Info("No required services configured for validation")
		return nil
	}

	logger.Log.Info("Validating required services",
		zap.Strings("services", sv.requiredServices),
	)

	for _, serviceName := range sv.requiredServices {
		check, ok := sv.checks[serviceName]
		if !ok {
			return fmt.Errorf("required service %q is not configured", serviceName)
		}

		timeoutCtx, cancel := context.WithTimeout(ctx, CheckTimeout)
		err := check(timeoutCtx)
		cancel()
		if err != nil {
			logger.Log.Error("Required service validation failed",
				zap.String("service", serviceName),
				zap.Error(err),
			)
			return fmt.Errorf("required service %q validation failed: %w", serviceName, err)
		}

		logger.Log.Info("Service validated successfully",
			zap.String("service", serviceName),
		)
	}

	logger.Log.Info("All required services validated successfully")
	return nil
}

// Configured lists the services that have a registered check, sorted
func (sv *ServiceValidator) Configured() []string {
	names := make([]string, 0, len(sv.checks))
	for name := range sv.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
