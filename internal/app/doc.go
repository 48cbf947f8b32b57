// Package app wires one checkboard invocation together: logger, env file,
// workflow config, step discovery, and the supervisor/dashboard pair. The
// CLI layer hands it a validated Config; app owns everything from there to
// the terminal run outcome.
package app
