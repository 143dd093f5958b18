package config

import "time"

// NewEndpointForTest creates an Endpoint config for testing purposes
func NewEndpointForTest(baseURL, clientID, clientSecret string, reportPaths []string, customFieldID int) *Endpoint {
	return &Endpoint{
		baseURL:             baseURL,
		clientID:            clientID,
		clientSecret:        clientSecret,
		reportPaths:         reportPaths,
		customFieldID:       customFieldID,
		submitDelay:         500 * time.Millisecond,
		retryCooldown:       time.Second,
		maxTransientRetries: 3,
	}
}

// ResolveForTest exposes URL resolution against the base URL
func (x *Endpoint) ResolveForTest(path string) string {
	return x.resolve(path)
}
