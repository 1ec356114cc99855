// Package tools wraps the external binaries the batch depends on.
//
// The producer generates one raw bitmap per invocation and the converter
// transcodes it into the final format. Both are opaque collaborators: aviary
// only cares about their path contracts and exit codes.
//
// [LocateProducer] and [LocateConverter] resolve the binaries once per run,
// preferring a local target/release build of the producer over PATH so that
// development builds win. Resolution failures are configuration errors and
// abort the run before any worker launches.
//
// [Producer] and [Converter] are interfaces so tests can substitute in-memory
// fakes without spawning processes.
package tools
