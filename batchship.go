// Package batchship adds write-behind batching to any type with a bulk
// operation.
//
// Example usage:
//
//	agg, err := batchship.New[string](target, aggregate.Config[string]{
//	    Interval: time.Second,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	agg.Intercept("hello")
//	if err := agg.Close(context.Background()); err != nil {
//	    log.Fatal(err)
//	}
//
// The aggregate package holds the full API; this package re-exports the
// common entry points.
package batchship

import (
	"fmt"

	"github.com/bft-labs/batchship/pkg/aggregate"
	"github.com/bft-labs/batchship/pkg/log"
)

// Errors returned by aggregators.
var (
	ErrInvalidConfig   = aggregate.ErrInvalidConfig
	ErrShutdownTimeout = aggregate.ErrShutdownTimeout
	ErrClosed          = aggregate.ErrClosed
)

// Args is the argument tuple of one call intercepted by a bound aggregator.
type Args = aggregate.Args

// BindConfig names the target methods of a bound aggregator.
type BindConfig = aggregate.BindConfig

// Dynamic is an aggregator bound to a target by method names.
type Dynamic = aggregate.Dynamic

// New creates an aggregator in front of target and starts its flush loop.
func New[T any](target aggregate.Flusher[T], cfg aggregate.Config[T], opts ...aggregate.Option) (*aggregate.Aggregator[T], error) {
	if err := validateModuleVersions(); err != nil {
		return nil, err
	}
	return aggregate.New[T](target, cfg, opts...)
}

// Bind creates an aggregator bound to target's methods by name.
func Bind(target any, cfg BindConfig, opts ...aggregate.Option) (*Dynamic, error) {
	if err := validateModuleVersions(); err != nil {
		return nil, err
	}
	return aggregate.Bind(target, cfg, opts...)
}

// ModuleVersions returns the version of every sub-module.
func ModuleVersions() map[string]string {
	return map[string]string{
		"aggregate": aggregate.Version,
		"log":       log.Version,
	}
}

// validateModuleVersions checks that all module versions are compatible.
func validateModuleVersions() error {
	modules := map[string]struct {
		version    string
		minVersion string
	}{
		"aggregate": {aggregate.Version, aggregate.MinCompatibleVersion},
		"log":       {log.Version, log.MinCompatibleVersion},
	}

	for name, m := range modules {
		if !isVersionCompatible(m.version, m.minVersion) {
			return fmt.Errorf("module %s version %s is below minimum compatible version %s",
				name, m.version, m.minVersion)
		}
	}
	return nil
}

// isVersionCompatible reports whether version >= minVersion.
// Versions are in "major.minor.patch" form.
func isVersionCompatible(version, minVersion string) bool {
	var vMajor, vMinor, vPatch int
	var mMajor, mMinor, mPatch int

	_, _ = fmt.Sscanf(version, "%d.%d.%d", &vMajor, &vMinor, &vPatch)
	_, _ = fmt.Sscanf(minVersion, "%d.%d.%d", &mMajor, &mMinor, &mPatch)

	if vMajor != mMajor {
		return vMajor > mMajor
	}
	if vMinor != mMinor {
		return vMinor > mMinor
	}
	return vPatch >= mPatch
}
