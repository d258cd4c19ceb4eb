package config

import "errors"

var (
	ErrMissingCredentials = errors.New("missing ProfitShare credentials")
	ErrInvalidWarming     = errors.New("invalid cache warming settings")
)
