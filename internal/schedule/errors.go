package schedule

import "go.trai.ch/zerr"

var (
	// ErrInvalidParameter возвращается при недопустимых параметрах построения расписания.
	ErrInvalidParameter = zerr.New("invalid parameter")

	// ErrInconsistentState возвращается при нарушении инвариантов расписания.
	ErrInconsistentState = zerr.New("inconsistent schedule state")
)
