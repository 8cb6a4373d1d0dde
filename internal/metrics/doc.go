// Package metrics provides internal metrics collection for the
// orchestration engine. This package is internal and should not be
// imported by external projects.
package metrics
