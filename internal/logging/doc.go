// Package logging builds the zerolog logger shared by the parkwatch commands.
package logging
