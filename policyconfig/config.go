// Package policyconfig loads declarative policy chain definitions from YAML
// and builds executable chains from them. A chain file names the chain and
// lists policies outermost-first:
//
//	name: checkout-pipeline
//	policies:
//	  - type: circuit_breaker
//	    failure_threshold: 5
//	    recovery_timeout: 30s
//	  - type: retry
//	    max_attempts: 3
//	    delay: 250ms
//
// Fallback is not expressible here: it needs a second unit of work, which a
// config file cannot carry. Compose fallbacks in code.
package policyconfig

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/jonwraymond/faultline/resilience"
)

// Sentinel errors for config parsing.
var (
	// ErrInvalidDuration indicates a duration field that is not a valid
	// Go duration string such as "250ms" or "30s".
	ErrInvalidDuration = errors.New("policyconfig: invalid duration")

	// ErrUnknownPolicyType indicates a policy entry with an unrecognized type.
	ErrUnknownPolicyType = errors.New("policyconfig: unknown policy type")
)

// Duration is a time.Duration that unmarshals from YAML duration strings.
type Duration time.Duration

// UnmarshalYAML parses values like "250ms", "1.5s", "2m".
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("%w: expected a scalar, got %v", ErrInvalidDuration, value.Kind)
	}
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidDuration, value.Value)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// ChainConfig is the root of a chain definition file.
type ChainConfig struct {
	Name     string       `yaml:"name" validate:"required"`
	Policies []PolicySpec `yaml:"policies" validate:"required,min=1,dive"`
}

// PolicySpec describes one policy in a chain. Type selects the policy; the
// remaining fields are read per type and ignored otherwise.
type PolicySpec struct {
	Type string `yaml:"type" validate:"required,oneof=retry timeout bulkhead circuit_breaker rate_limit"`

	// retry
	MaxAttempts int      `yaml:"max_attempts,omitempty"`
	Delay       Duration `yaml:"delay,omitempty"`

	// timeout
	Timeout Duration `yaml:"timeout,omitempty"`

	// bulkhead
	Capacity int `yaml:"capacity,omitempty"`

	// circuit_breaker
	FailureThreshold int      `yaml:"failure_threshold,omitempty"`
	RecoveryTimeout  Duration `yaml:"recovery_timeout,omitempty"`

	// rate_limit
	Rate        float64 `yaml:"rate,omitempty"`
	Burst       int     `yaml:"burst,omitempty"`
	WaitOnLimit bool    `yaml:"wait_on_limit,omitempty"`
}

var validate = validator.New()

// Parse decodes and validates a chain definition.
func Parse(data []byte) (*ChainConfig, error) {
	var cfg ChainConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("policyconfig: parse: %w", err)
	}
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("policyconfig: validate: %w", err)
	}
	return &cfg, nil
}

// Load reads and parses a chain definition file.
func Load(path string) (*ChainConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("policyconfig: read %s: %w", path, err)
	}
	return Parse(data)
}

// Build constructs the executable chain. Policies appear in the chain in file
// order, first entry outermost. Invalid policy parameters surface as
// resilience.ErrInvalidConfig.
func (c *ChainConfig) Build() (*resilience.Chain, error) {
	policies := make([]resilience.Policy, 0, len(c.Policies))

	for i, spec := range c.Policies {
		policy, err := buildPolicy(spec)
		if err != nil {
			return nil, fmt.Errorf("policyconfig: chain %q policy %d (%s): %w", c.Name, i, spec.Type, err)
		}
		policies = append(policies, policy)
	}

	return resilience.NewChain(policies...), nil
}

func buildPolicy(spec PolicySpec) (resilience.Policy, error) {
	switch spec.Type {
	case "retry":
		return resilience.NewRetry(resilience.RetryConfig{
			MaxAttempts: spec.MaxAttempts,
			Delay:       spec.Delay.Std(),
		})

	case "timeout":
		return resilience.NewTimeout(resilience.TimeoutConfig{
			Timeout: spec.Timeout.Std(),
		})

	case "bulkhead":
		return resilience.NewBulkhead(resilience.BulkheadConfig{
			Capacity: spec.Capacity,
		})

	case "circuit_breaker":
		return resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			FailureThreshold: spec.FailureThreshold,
			RecoveryTimeout:  spec.RecoveryTimeout.Std(),
		})

	case "rate_limit":
		return resilience.NewRateLimiter(resilience.RateLimiterConfig{
			Rate:        spec.Rate,
			Burst:       spec.Burst,
			WaitOnLimit: spec.WaitOnLimit,
		})

	default:
		// Unreachable after validation, kept for direct buildPolicy callers.
		return nil, fmt.Errorf("%w: %q", ErrUnknownPolicyType, spec.Type)
	}
}
