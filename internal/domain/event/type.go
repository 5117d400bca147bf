package event

// Type identifies the type of domain event
type Type string

const (
	TypeDraftSaved      Type = "request.draft_saved"
	TypeStatusChanged   Type = "request.status_changed"
	TypeAttachmentAdded Type = "request.attachment_added"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeDraftSaved, TypeStatusChanged, TypeAttachmentAdded:
		return true
	default:
		return false
	}
}
