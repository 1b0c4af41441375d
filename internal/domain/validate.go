package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateProject rejects records that cannot be identified or carry out-of-range numbers.
// Soft fields (deadline text, client type) are left to the scorer's fallbacks.
func ValidateProject(p ProjectRecord) error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("invalid project %q: %w", p.ID, flatten(err))
	}
	if p.Status != "" && !p.Status.IsValid() {
		return fmt.Errorf("invalid project %q: unknown status %s", p.ID, p.Status)
	}
	return nil
}

func ValidateTask(t Task) error {
	if err := validate.Struct(t); err != nil {
		return fmt.Errorf("invalid task %q: %w", t.ID, flatten(err))
	}
	return nil
}

func flatten(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s failed %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			parts = append(parts, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	return errors.New(strings.Join(parts, "; "))
}
