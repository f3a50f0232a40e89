// Package sshclient is the transport of rustty: it connects and
// authenticates an SSH session, then opens any number of PTY shells on it.
//
// A Session is shared by its channels and closes its connection once the
// caller and every channel have released it. Each Channel runs one reader
// goroutine that hands output to a callback tagged with the channel's
// window identifier.
package sshclient
