package utils

import "github.com/pkg/errors"

var ErrNotFound = errors.New("not found")
