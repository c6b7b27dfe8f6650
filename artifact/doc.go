// Package artifact contains implementations of core.ArtifactStore.
//
// deepresearch stores every completed research report as an artifact named
// "report-<runID>.md" under the session that produced it, so front-ends can
// list and download earlier reports. Callers depend on the core interface so
// storage backends can be swapped in tests or production.
package artifact
