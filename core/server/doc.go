// Package server holds the HTTP server configuration.
//
// The main application entry point handles the actual server startup; this
// package only defines the configuration structure embedded by core/config
// (listen port and the API key the gateway must present).
package server
