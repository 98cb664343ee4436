// Package client talks to the productkeeper HTTP API.
//
// # Overview
//
// The Client interface lists the API operations the CLI needs: Register,
// Login, Logout, Me and the product calls. HTTPClient implements it over
// net/http, keeps the bearer token returned by Login and sends it on every
// authenticated request.
//
// # Error Handling
//
// Transport failures wrap ErrUnavailable. Error envelopes are decoded into
// *APIError; a 401 envelope also matches ErrUnauthorized with errors.Is.
package client
