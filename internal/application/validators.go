package application

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/ahrav/go-jury/internal/domain"
)

// registerCustomValidators registers the jury-specific tags used by
// JuryConfig with the validator instance.
func registerCustomValidators(v *validator.Validate) error {
	if err := v.RegisterValidation("votingmethod", validateVotingMethod); err != nil {
		return fmt.Errorf("failed to register votingmethod validator: %w", err)
	}
	return nil
}

// validateVotingMethod accepts any recognized voting method.
func validateVotingMethod(fl validator.FieldLevel) bool {
	return domain.VotingMethod(fl.Field().String()).IsValid()
}

// describeValidationErrors flattens validator errors into a
// domain.ValidationError with one readable message per failing field.
func describeValidationErrors(entity string, err error) *domain.ValidationError {
	verr := domain.NewValidationError(entity)

	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		verr.AddError(err.Error())
		return verr
	}

	for _, fe := range errs {
		field := fe.Namespace()
		switch fe.Tag() {
		case "required":
			verr.AddError(fmt.Sprintf("%s is required", field))
		case "required_if":
			verr.AddError(fmt.Sprintf("%s is required when %s", field, fe.Param()))
		case "unique":
			verr.AddError(fmt.Sprintf("%s must have unique %s values", field, fe.Param()))
		case "votingmethod":
			verr.AddError(fmt.Sprintf("%s %q is not a recognized voting method", field, fe.Value()))
		case "oneof":
			verr.AddError(fmt.Sprintf("%s must be one of [%s]", field, fe.Param()))
		case "min":
			verr.AddError(fmt.Sprintf("%s must be at least %s", field, fe.Param()))
		case "max":
			verr.AddError(fmt.Sprintf("%s must be at most %s", field, fe.Param()))
		default:
			verr.AddError(fmt.Sprintf("%s failed %s validation", field, fe.Tag()))
		}
	}
	return verr
}
