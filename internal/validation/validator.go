// Package validation wires go-playground/validator into Echo so request
// DTOs can be checked with struct tags before any business logic runs.
package validation

import (
    "github.com/go-playground/validator/v10"
)

// RequestValidator adapts a validator.Validate instance to Echo's
// Validator interface. Handlers call c.Validate(&req) after binding and
// translate the returned error into a 400 response with field details.
type RequestValidator struct {
    validate *validator.Validate
}

// New returns a RequestValidator with the default tag name ("validate").
func New() *RequestValidator {
    return &RequestValidator{validate: validator.New()}
}

// Validate implements echo.Validator.
func (rv *RequestValidator) Validate(i interface{}) error {
    return rv.validate.Struct(i)
}

// Details flattens a validation error into per-field messages suitable
// for the "details" key of a 400 response body. Non-validation errors
// yield a single generic entry.
func Details(err error) []string {
    verrs, ok := err.(validator.ValidationErrors)
    if !ok {
        return []string{"invalid request body"}
    }
    out := make([]string, 0, len(verrs))
    for _, fe := range verrs {
        out = append(out, fe.Field()+" failed on the '"+fe.Tag()+"' rule")
    }
    return out
}
