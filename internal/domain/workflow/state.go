package workflow

// State represents the status of a conference request in the approval lifecycle.
// The string values are the persisted choice values of the request list.
type State string

const (
	StateDraft             State = "Draft"
	StatePendingManager    State = "Pending Manager Approval"
	StatePendingOrgDev     State = "Pending Org Dev Approval"
	StatePendingAccounting State = "Pending Accounting Approval"
	StateFullyApproved     State = "Fully Approved"
	StateDenied            State = "Denied"
)

// AllStates lists every valid state in workflow order
var AllStates = []State{
	StateDraft,
	StatePendingManager,
	StatePendingOrgDev,
	StatePendingAccounting,
	StateFullyApproved,
	StateDenied,
}

var validStates = func() map[State]bool {
	valid := make(map[State]bool, len(AllStates))
	for _, s := range AllStates {
		valid[s] = true
	}
	return valid
}()

var terminalStates = map[State]bool{
	StateFullyApproved: true,
	StateDenied:        true,
}

// pendingStages maps each waiting state to the stage that must act on it
var pendingStages = map[State]Stage{
	StatePendingManager:    StageManager,
	StatePendingOrgDev:     StageOrgDev,
	StatePendingAccounting: StageAccounting,
}

// IsTerminal returns true if the state is a terminal state (no further transitions allowed)
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a valid workflow state
func (s State) IsValid() bool {
	return validStates[s]
}

// PendingStage returns the approval stage a request in this state is waiting on.
// The second return value is false for Draft and terminal states.
func (s State) PendingStage() (Stage, bool) {
	stage, ok := pendingStages[s]
	return stage, ok
}

// Stage identifies one of the three sequential approval steps
type Stage string

const (
	StageManager    Stage = "manager"
	StageOrgDev     Stage = "orgdev"
	StageAccounting Stage = "accounting"
)
