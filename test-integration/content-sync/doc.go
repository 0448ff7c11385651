// Package integration provides integration tests for the content sync server.
// They run the complete server against in-memory fakes of the GitHub and
// syndication APIs and follow items through the job queue.
package integration
