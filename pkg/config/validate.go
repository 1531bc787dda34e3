// Brickdrive Core
// Copyright (c) 2026 The Brickdrive Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Brickdrive Core.
//
// Brickdrive Core is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Brickdrive Core is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Brickdrive Core.  If not, see <http://www.gnu.org/licenses/>.

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/brickdrive/brickdrive-core/pkg/indicators"
	"github.com/brickdrive/brickdrive-core/pkg/ports"
	"github.com/brickdrive/brickdrive-core/pkg/telegram"
	"github.com/go-playground/validator/v10"
)

// ConfigurationError lists every problem found in a config file.
type ConfigurationError struct {
	Problems []string
}

func (e *ConfigurationError) Error() string {
	return "invalid configuration: " + strings.Join(e.Problems, "; ")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	_ = v.RegisterValidation("duration", validateDuration)
	_ = v.RegisterValidation("analog", validateAnalog)
	_ = v.RegisterValidation("color", validateColor)
	_ = v.RegisterValidation("profile", validateProfile)
	v.RegisterStructValidation(validateLink, Link{})
	v.RegisterStructValidation(validatePorts, Ports{})

	return v
}

// Validate checks vals and returns a *ConfigurationError describing every
// failed field.
func Validate(vals *Values) error {
	err := validate.Struct(vals)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validation failed: %w", err)
	}
	problems := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		problems = append(problems, describe(fe))
	}
	return &ConfigurationError{Problems: problems}
}

func describe(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "Values.")
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", field, fe.Param(), fe.Value())
	case "duration":
		return fmt.Sprintf("%s is not a duration: %q", field, fe.Value())
	case "analog":
		return fmt.Sprintf("%s is not an analog channel: %q", field, fe.Value())
	case "color":
		return fmt.Sprintf("%s is not a #RRGGBB color: %q", field, fe.Value())
	case "profile":
		return fmt.Sprintf("%s must be one of %v, got %q", field, indicators.Names(), fe.Value())
	case "gte", "lte":
		return fmt.Sprintf("%s is out of range (%s %s)", field, fe.Tag(), fe.Param())
	default:
		if fe.Param() != "" {
			return fmt.Sprintf("%s failed %s=%s", field, fe.Tag(), fe.Param())
		}
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}

// validateDuration checks if string is a valid, non-negative Go duration.
func validateDuration(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	if val == "" {
		return true
	}
	d, err := time.ParseDuration(val)
	return err == nil && d >= 0
}

func validateAnalog(fl validator.FieldLevel) bool {
	c, err := telegram.ParseChannel(fl.Field().String())
	return err == nil && !c.IsDigital()
}

func validateColor(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	if val == "" {
		return true
	}
	_, err := ports.ParseRGB(val)
	return err == nil
}

func validateProfile(fl validator.FieldLevel) bool {
	_, err := indicators.Lookup(fl.Field().String())
	return err == nil
}

func validateLink(sl validator.StructLevel) {
	l, ok := sl.Current().Interface().(Link)
	if !ok {
		return
	}
	switch l.Driver {
	case LinkDriverSerial:
		if l.Format == FormatBinary {
			sl.ReportError(l.Format, "Format", "Format", "oneof", "text")
		}
		if l.Path == "" {
			sl.ReportError(l.Path, "Path", "Path", "required", "")
		}
	case LinkDriverMQTT:
		if l.Path == "" {
			sl.ReportError(l.Path, "Path", "Path", "required", "")
		}
	}
}

func validatePorts(sl validator.StructLevel) {
	p, ok := sl.Current().Interface().(Ports)
	if !ok {
		return
	}
	if p.Driver == PortsDriverSerial && p.Path == "" {
		sl.ReportError(p.Path, "Path", "Path", "required", "")
	}
}
