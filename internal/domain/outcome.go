package domain

// EnsureStatus is the outcome of ensuring a single catalog entry exists.
type EnsureStatus string

const (
	EnsureCreated        EnsureStatus = "created"
	EnsureAlreadyPresent EnsureStatus = "already-present"
	EnsureFailed         EnsureStatus = "failed"
)

// RemoveStatus is the outcome of removing a single catalog entry.
type RemoveStatus string

const (
	RemoveRemoved  RemoveStatus = "removed"
	RemoveNotFound RemoveStatus = "not-found"
	RemoveBlocked  RemoveStatus = "blocked"
	RemoveFailed   RemoveStatus = "failed"
)

// EnsureResult records the outcome of one ensure operation. Err holds the
// underlying error text when Status is [EnsureFailed].
type EnsureResult struct {
	Kind   ObjectKind
	Name   string
	Status EnsureStatus
	Err    string
}

// RemoveResult records the outcome of one remove operation. Err holds the
// underlying error text when Status is [RemoveFailed] or the blocking
// reason when Status is [RemoveBlocked].
type RemoveResult struct {
	Kind   ObjectKind
	Name   string
	Status RemoveStatus
	Err    string
}

// PhaseError records a failed phase attach. Phase attach failures do not
// roll back the rule or earlier phases.
type PhaseError struct {
	RuleName    string
	TargetGroup string
	Err         string
}

// Mode selects the direction of a provisioning run.
type Mode string

const (
	ModeInstall   Mode = "install"
	ModeUninstall Mode = "uninstall"
)

// RunReport is the aggregate outcome of one provisioning run. Results are
// listed in catalog processing order. There is no rollback across objects;
// the report is the whole contract.
type RunReport struct {
	Mode      Mode
	Ensures   []EnsureResult
	Removes   []RemoveResult
	PhaseErrs []PhaseError
}

// Tally is the per-status count of a run's results.
type Tally struct {
	Created        int
	AlreadyPresent int
	Removed        int
	NotFound       int
	Blocked        int
	Failed         int
}

// Tally counts the report's results by status. Phase attach failures count
// toward Failed.
func (r RunReport) Tally() Tally {
	var t Tally
	for _, e := range r.Ensures {
		switch e.Status {
		case EnsureCreated:
			t.Created++
		case EnsureAlreadyPresent:
			t.AlreadyPresent++
		case EnsureFailed:
			t.Failed++
		}
	}
	for _, rm := range r.Removes {
		switch rm.Status {
		case RemoveRemoved:
			t.Removed++
		case RemoveNotFound:
			t.NotFound++
		case RemoveBlocked:
			t.Blocked++
		case RemoveFailed:
			t.Failed++
		}
	}
	t.Failed += len(r.PhaseErrs)
	return t
}

// TallyByKind counts the report's results by object kind. Phase attach
// failures count toward the rule kind.
func (r RunReport) TallyByKind() map[ObjectKind]Tally {
	out := make(map[ObjectKind]Tally)
	for _, e := range r.Ensures {
		t := out[e.Kind]
		switch e.Status {
		case EnsureCreated:
			t.Created++
		case EnsureAlreadyPresent:
			t.AlreadyPresent++
		case EnsureFailed:
			t.Failed++
		}
		out[e.Kind] = t
	}
	for _, rm := range r.Removes {
		t := out[rm.Kind]
		switch rm.Status {
		case RemoveRemoved:
			t.Removed++
		case RemoveNotFound:
			t.NotFound++
		case RemoveBlocked:
			t.Blocked++
		case RemoveFailed:
			t.Failed++
		}
		out[rm.Kind] = t
	}
	if len(r.PhaseErrs) > 0 {
		t := out[KindRule]
		t.Failed += len(r.PhaseErrs)
		out[KindRule] = t
	}
	return out
}

// Failed reports whether any object in the run failed.
func (r RunReport) Failed() bool {
	return r.Tally().Failed > 0
}
