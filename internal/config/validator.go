package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validate validates the Config using struct tags plus cross-field
// rules the tags can't express.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())

	if err := v.Struct(c); err != nil {
		return formatValidationErrors(err)
	}

	if err := c.validateRouterEntriesReferenceAssets(); err != nil {
		return err
	}
	if err := c.validateTesterEntriesReferenceAssets(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateRouterEntriesReferenceAssets() error {
	policies := namesOf(c.Policies)
	filters := namesOf(c.Filters)
	for i, e := range c.Router {
		if _, ok := policies[e.PolicyName]; !ok {
			return fmt.Errorf("router[%d]: references unknown policy %q", i, e.PolicyName)
		}
		if e.FilterName == "" {
			return fmt.Errorf("router[%d]: filter is required", i)
		}
		if _, ok := filters[e.FilterName]; !ok {
			return fmt.Errorf("router[%d]: references unknown filter %q", i, e.FilterName)
		}
	}
	return nil
}

func (c *Config) validateTesterEntriesReferenceAssets() error {
	policies := namesOf(c.Policies)
	for i, e := range c.Tester {
		if _, ok := policies[e.PolicyName]; !ok {
			return fmt.Errorf("tester[%d]: references unknown policy %q", i, e.PolicyName)
		}
	}
	return nil
}

func namesOf(assets []AssetConfig) map[string]struct{} {
	out := make(map[string]struct{}, len(assets))
	for _, a := range assets {
		out[a.Name] = struct{}{}
	}
	return out
}

func formatValidationErrors(err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		messages := make([]string, 0, len(validationErrors))
		for _, e := range validationErrors {
			messages = append(messages, formatSingleValidationError(e))
		}
		return errors.New(strings.Join(messages, "; "))
	}
	return err
}

func formatSingleValidationError(e validator.FieldError) string {
	field := e.Namespace()
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "hostname_port":
		return fmt.Sprintf("%s must be a valid host:port", field)
	default:
		return fmt.Sprintf("%s failed validation: %s", field, e.Tag())
	}
}
