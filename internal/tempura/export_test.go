package tempura

var (
	Acceptance = acceptance
	Rollback   = rollback
)
