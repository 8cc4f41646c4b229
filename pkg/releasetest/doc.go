// Package releasetest provides testing utilities for release pipelines.
//
// It builds throwaway project roots populated with executable stage scripts
// that record their invocations, so tests can assert on stage ordering and
// abort behavior without real release tooling.
package releasetest
