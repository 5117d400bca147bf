package workflow

// Trigger represents an action that can cause a state transition
type Trigger string

const (
	TriggerSaveDraft         Trigger = "SAVE_DRAFT"
	TriggerSubmit            Trigger = "SUBMIT"
	TriggerManagerApprove    Trigger = "MANAGER_APPROVE"
	TriggerManagerDeny       Trigger = "MANAGER_DENY"
	TriggerOrgDevApprove     Trigger = "ORG_DEV_APPROVE"
	TriggerOrgDevDeny        Trigger = "ORG_DEV_DENY"
	TriggerAccountingApprove Trigger = "ACCOUNTING_APPROVE"
	TriggerAccountingDeny    Trigger = "ACCOUNTING_DENY"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}

// ApproveTrigger returns the approve trigger for a stage
func ApproveTrigger(stage Stage) Trigger {
	switch stage {
	case StageManager:
		return TriggerManagerApprove
	case StageOrgDev:
		return TriggerOrgDevApprove
	case StageAccounting:
		return TriggerAccountingApprove
	}
	return ""
}

// DenyTrigger returns the deny trigger for a stage
func DenyTrigger(stage Stage) Trigger {
	switch stage {
	case StageManager:
		return TriggerManagerDeny
	case StageOrgDev:
		return TriggerOrgDevDeny
	case StageAccounting:
		return TriggerAccountingDeny
	}
	return ""
}
