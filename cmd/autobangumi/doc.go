// Package main hosts the autobangumi CLI entrypoint and command graph.
//
// The Cobra command tree runs the daemon, triggers one-off rename passes and
// feed probes, manages subscriptions and tracked series in the local
// database, and exposes the release name parser for troubleshooting. It
// centralizes configuration resolution and logger setup so subcommands can
// focus on output.
//
// Keep this package lean: add functionality to the internal packages first,
// then surface it through a command or flag here.
package main
