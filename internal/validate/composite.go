package validate

import "context"

// CompositeValidator applies an ordered sequence of validators to one path.
// The first rejection short-circuits and is returned as-is; on full success
// the attribute maps are merged, later validators overwriting earlier keys.
type CompositeValidator struct {
	validators []Validator
}

// NewCompositeValidator creates a composite over the given validators.
func NewCompositeValidator(validators ...Validator) *CompositeValidator {
	return &CompositeValidator{validators: validators}
}

// Validate implements Validator.
func (v *CompositeValidator) Validate(ctx context.Context, path string) Result {
	merged := map[string]any{}
	for _, inner := range v.validators {
		res := inner.Validate(ctx, path)
		if !res.OK {
			return res
		}
		for k, val := range res.Attrs {
			merged[k] = val
		}
	}
	return Accept(merged)
}
