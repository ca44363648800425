// Package jobnimbus provides a client for the JobNimbus REST API.
//
// The Client interface covers the record types the server exposes as tools;
// the HTTP implementation retries transient failures and authenticates each
// call with the API key of the named instance.
package jobnimbus
