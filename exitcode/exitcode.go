package exitcode

const (
	Success           = 0
	RuntimeFailure    = 1
	InvalidUsage      = 2
	InvalidConfig     = 3
	IntegrityMismatch = 4
	Interrupted       = 130
)
