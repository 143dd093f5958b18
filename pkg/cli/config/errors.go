package config

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for configuration validation
var (
	ErrInvalidEndpoint = goerr.New("invalid endpoint configuration")
)
