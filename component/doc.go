// Package component defines the lifecycle contract shared by the HTTP
// server and the template fetcher, and the Registry that runs them.
//
// Optional interfaces feed the startup summary: Describable for the
// infrastructure section, RouteProvider for the route table.
package component
