package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// tagMessages renders a failed rule; {field} and {param} are substituted.
var tagMessages = map[string]string{
	"required":      "{field} is required",
	"min":           "{field} must be at least {param}",
	"oneof":         "{field} must be one of: {param}",
	"url":           "{field} must be a valid URL",
	"hostname_port": "{field} must be a valid host:port",
	"duration":      `{field} must be a positive duration such as "30s"`,
}

func newValidator() (*validator.Validate, error) {
	v := validator.New(validator.WithRequiredStructEnabled())
	err := v.RegisterValidation("duration", func(fl validator.FieldLevel) bool {
		d, err := time.ParseDuration(fl.Field().String())
		return err == nil && d > 0
	})
	if err != nil {
		return nil, fmt.Errorf("register duration rule: %w", err)
	}
	return v, nil
}

// Validate checks the struct tags first, then the per-driver storage
// requirements. Every tag failure is reported in one error.
func (c *Config) Validate() error {
	v, err := newValidator()
	if err != nil {
		return err
	}
	if err := v.Struct(c); err != nil {
		return describe(err)
	}

	switch c.Storage.Driver {
	case DriverFile, DriverSQLite:
		if c.Storage.Path == "" {
			return fmt.Errorf("storage.path is required for the %s driver", c.Storage.Driver)
		}
	case DriverRedis:
		if c.Storage.RedisAddr == "" {
			return errors.New("storage.redis_addr is required for the redis driver")
		}
	}
	return nil
}

func describe(err error) error {
	var fields validator.ValidationErrors
	if !errors.As(err, &fields) {
		return err
	}
	msgs := make([]string, 0, len(fields))
	for _, fe := range fields {
		tmpl, ok := tagMessages[fe.Tag()]
		if !ok {
			tmpl = "{field} failed validation: " + fe.Tag()
		}
		r := strings.NewReplacer("{field}", fe.Namespace(), "{param}", fe.Param())
		msgs = append(msgs, r.Replace(tmpl))
	}
	return errors.New(strings.Join(msgs, "; "))
}
