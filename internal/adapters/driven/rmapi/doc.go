// Package rmapi drives the reMarkable cloud through the rmapi
// command-line client.
//
// Runner executes one or more processes connected by OS pipes and returns
// the last stage's stdout as lines. Client builds on Runner to implement
// driven.Destination. ConfigFile reads the client's YAML configuration and
// writes a fresh configuration file for every credential session, so a
// process started before a token refresh keeps the file it was given.
package rmapi
