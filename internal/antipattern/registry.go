package antipattern

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/aezell/codemint/internal/model"
)

// DefaultRegistrySize is the number of detectors kept before the least
// recently used one is evicted.
const DefaultRegistrySize = 1024

// Registry holds validators keyed by pattern ID. Registering a pattern again
// replaces its validator.
type Registry struct {
	cache  *lru.Cache[string, *Validator]
	logger *zap.Logger
}

// NewRegistry creates a registry holding at most size validators.
func NewRegistry(size int, logger *zap.Logger) (*Registry, error) {
	if size <= 0 {
		size = DefaultRegistrySize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cache, err := lru.NewWithEvict(size, func(patternID string, v *Validator) {
		logger.Debug("detector evicted", zap.String("pattern_id", patternID), zap.String("validator_id", v.ValidatorID))
	})
	if err != nil {
		return nil, fmt.Errorf("creating detector cache: %w", err)
	}
	return &Registry{cache: cache, logger: logger}, nil
}

// Register adds v under its pattern ID.
func (r *Registry) Register(v *Validator) {
	r.cache.Add(v.PatternID, v)
	r.logger.Debug("detector registered",
		zap.String("pattern_id", v.PatternID),
		zap.Strings("tokens", v.tokens))
}

// Lookup returns the validator for patternID and marks it recently used.
func (r *Registry) Lookup(patternID string) (*Validator, bool) {
	return r.cache.Get(patternID)
}

// Remove drops the validator for patternID.
func (r *Registry) Remove(patternID string) bool {
	return r.cache.Remove(patternID)
}

// Len returns the number of registered validators.
func (r *Registry) Len() int {
	return r.cache.Len()
}

// Validators returns every registered validator, least recently used first,
// without touching recency.
func (r *Registry) Validators() []*Validator {
	keys := r.cache.Keys()
	out := make([]*Validator, 0, len(keys))
	for _, k := range keys {
		if v, ok := r.cache.Peek(k); ok {
			out = append(out, v)
		}
	}
	return out
}

// CheckAll runs every registered validator over source and concatenates the
// violations in Validators order.
func (r *Registry) CheckAll(source, filePath string) []model.AntiPatternViolation {
	var all []model.AntiPatternViolation
	for _, v := range r.Validators() {
		all = append(all, v.Check(source, filePath)...)
	}
	return all
}
