// Package memory provides in-memory implementations of the driven
// storage ports. They back unit tests and ephemeral runs where no
// database is wanted; nothing survives process exit.
package memory
