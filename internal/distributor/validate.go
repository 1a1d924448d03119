package distributor

import (
	"github.com/go-playground/validator/v10"

	"crawling_observer/internal/domain"
)

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterStructValidation(validateBatch, domain.Batch{})
	return v
}

// validateBatch enforces that a batch carries exactly one of a non-empty
// payload and a fail log.
func validateBatch(sl validator.StructLevel) {
	b := sl.Current().Interface().(domain.Batch)

	switch {
	case b.FailLog != nil && len(b.Payload) > 0:
		sl.ReportError(b.Payload, "Payload", "payload", "excluded_with", "FailLog")
	case b.FailLog == nil && len(b.Payload) == 0:
		sl.ReportError(b.Payload, "Payload", "payload", "required_without", "FailLog")
	}
}
