package executors

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/yash7pute/AI-Operations-Command-Center-sub010/internal/domain"
	"github.com/yash7pute/AI-Operations-Command-Center-sub010/internal/services/auth"
)

// SimulatedOptions tune the simulated executor's behavior.
type SimulatedOptions struct {
	// Latency is slept inside each method call, honoring context
	// cancellation.
	Latency time.Duration

	// FailWith, when non-empty, makes every method call fail with this
	// message.
	FailWith string
}

// Simulated implements domain.Capability without touching any platform.
// It backs `occ run --dry-run` and the test suite: same methods, same
// required params, fabricated results.
type Simulated struct {
	platform string
	methods  map[string]domain.Method
}

// NewSimulated builds a simulated capability for a cataloged platform.
func NewSimulated(platform string, opts SimulatedOptions) (*Simulated, error) {
	specs, ok := catalog[platform]
	if !ok {
		return nil, errors.New("executors: no simulated methods for platform " + platform)
	}

	s := &Simulated{
		platform: platform,
		methods:  make(map[string]domain.Method, len(specs)),
	}
	for _, spec := range specs {
		s.methods[spec.name] = domain.Method{
			Name:     spec.name,
			Required: spec.required,
			Run:      s.run(spec.name, opts),
		}
	}
	return s, nil
}

func (s *Simulated) Platform() string { return s.platform }

func (s *Simulated) Method(name string) (domain.Method, bool) {
	m, ok := s.methods[name]
	return m, ok
}

func (s *Simulated) run(method string, opts SimulatedOptions) func(context.Context, map[string]any) (*domain.ExecutionResult, error) {
	return func(ctx context.Context, params map[string]any) (*domain.ExecutionResult, error) {
		start := time.Now()
		if opts.Latency > 0 {
			timer := time.NewTimer(opts.Latency)
			defer timer.Stop()
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-timer.C:
			}
		}

		if opts.FailWith != "" {
			return &domain.ExecutionResult{
				Success:  false,
				Error:    opts.FailWith,
				Duration: time.Since(start),
			}, errors.New(opts.FailWith)
		}

		return &domain.ExecutionResult{
			Success: true,
			Data: map[string]any{
				"simulated": true,
				"method":    method,
				"id":        "sim-" + uuid.NewString()[:8],
			},
			Duration: time.Since(start),
		}, nil
	}
}

// RegisterSimulated registers the simulated executor for every cataloged
// platform. Used by dry runs and tests; the factory ignores the token
// store because nothing real is called.
func RegisterSimulated(opts SimulatedOptions) {
	for _, platform := range Platforms() {
		Register(platform, func(auth.Store) (domain.Capability, error) {
			return NewSimulated(platform, opts)
		})
	}
}
