package dto

import (
	"fmt"
	"strings"

	"github.com/SscSPs/municipal_tax_ledger/internal/apperrors"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks the struct tags of a request and reports failures as
// apperrors.ErrValidation.
func Validate(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s failed on '%s'", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", apperrors.ErrValidation, strings.Join(fields, "; "))
}
