// Package exitcode lists the process exit codes of invrollup.
package exitcode

const (
	Success         = 0
	UsageError      = 1
	ValidationError = 2
	RunFailed       = 3
	PartialBatch    = 4
)
