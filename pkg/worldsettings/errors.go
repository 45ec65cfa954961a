package worldsettings

import (
	"github.com/pkg/errors"
)

// Error taxonomy shared by the decoder, the loader and the admin API.
// Match with errors.Is; the wrapped message names the offending field.
var (
	ErrMissingRequiredField = errors.New("missing required field")
	ErrInvalidConfigValue   = errors.New("invalid config value")
	ErrDuplicateWorldName   = errors.New("duplicate world name")
)

func missing(field string) error {
	return errors.WithMessagef(ErrMissingRequiredField, "%s", field)
}

func invalidf(format string, args ...interface{}) error {
	return errors.WithMessagef(ErrInvalidConfigValue, format, args...)
}

// asInvalid classifies an arbitrary decoding failure. Errors that already
// belong to the taxonomy pass through untouched.
func asInvalid(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrInvalidConfigValue) || errors.Is(err, ErrMissingRequiredField) {
		return err
	}
	return errors.WithMessage(ErrInvalidConfigValue, err.Error())
}

func IsMissing(err error) bool {
	return errors.Is(err, ErrMissingRequiredField)
}

func IsInvalid(err error) bool {
	return errors.Is(err, ErrInvalidConfigValue)
}

func IsDuplicate(err error) bool {
	return errors.Is(err, ErrDuplicateWorldName)
}
