// Package common holds helpers shared by the toolkit services: the
// subprocess runner abstraction, exit-code propagation, and the
// concurrent-run guard.
package common
