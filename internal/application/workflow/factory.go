package workflow

import (
	domainwf "github.com/garyjia/conference-requests/internal/domain/workflow"
)

// BuildConferenceStateMachine creates a state machine configured for the
// Manager, Org Dev, Accounting approval chain
func BuildConferenceStateMachine(initialState domainwf.State) domainwf.StateMachine {
	builder := domainwf.NewBuilder()

	// Draft: submitter edits or submits
	builder.Configure(domainwf.StateDraft).
		Permit(domainwf.TriggerSaveDraft, domainwf.StateDraft).
		Permit(domainwf.TriggerSubmit, domainwf.StatePendingManager)

	builder.Configure(domainwf.StatePendingManager).
		Permit(domainwf.TriggerManagerApprove, domainwf.StatePendingOrgDev).
		Permit(domainwf.TriggerManagerDeny, domainwf.StateDenied)

	builder.Configure(domainwf.StatePendingOrgDev).
		Permit(domainwf.TriggerOrgDevApprove, domainwf.StatePendingAccounting).
		Permit(domainwf.TriggerOrgDevDeny, domainwf.StateDenied)

	builder.Configure(domainwf.StatePendingAccounting).
		Permit(domainwf.TriggerAccountingApprove, domainwf.StateFullyApproved).
		Permit(domainwf.TriggerAccountingDeny, domainwf.StateDenied)

	// Fully Approved and Denied are terminal

	return builder.Build(initialState)
}
