package entity

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainwf "github.com/garyjia/conference-requests/internal/domain/workflow"
)

func TestRequestPatch_ApplyTo_MergesCostsAndRecomputesTotal(t *testing.T) {
	req := &ConferenceRequest{
		Status: domainwf.StateDraft,
		Costs:  Costs{Registration: 100, Airfare: 50},
	}
	req.RecalculateTotal()

	RequestPatch{Costs: CostPatch{Lodging: Ptr(25.0)}}.ApplyTo(req)

	assert.Equal(t, 100.0, req.Registration)
	assert.Equal(t, 50.0, req.Airfare)
	assert.Equal(t, 25.0, req.Lodging)
	assert.Equal(t, 175.0, req.TotalEstimatedBudget)
}

func TestRequestPatch_ApplyTo_LeavesNilFieldsUntouched(t *testing.T) {
	start := NewDate(2025, time.March, 10)
	req := &ConferenceRequest{
		EventName:      "GopherCon",
		EventLocation:  "Chicago",
		EventStartDate: &start,
		Status:         domainwf.StateDraft,
	}

	RequestPatch{EventLocation: Ptr("Denver")}.ApplyTo(req)

	assert.Equal(t, "GopherCon", req.EventName)
	assert.Equal(t, "Denver", req.EventLocation)
	require.NotNil(t, req.EventStartDate)
	assert.Equal(t, "2025-03-10", req.EventStartDate.String())
}

func TestRequestPatch_ApplyTo_ZeroDateClears(t *testing.T) {
	start := NewDate(2025, time.March, 10)
	req := &ConferenceRequest{EventStartDate: &start}

	RequestPatch{EventStartDate: &Date{}}.ApplyTo(req)

	assert.Nil(t, req.EventStartDate)
}

func TestRequestPatch_ApplyTo_NormalizesPriorities(t *testing.T) {
	req := &ConferenceRequest{}
	p := Priorities{"Excelling in Bank Transformation", "bogus", "Igniting Sales & Service Culture"}

	RequestPatch{CorporatePriorities: &p}.ApplyTo(req)

	assert.Equal(t, Priorities{"Igniting Sales & Service Culture", "Excelling in Bank Transformation"}, req.CorporatePriorities)
}

func TestCheckConsistency(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name    string
		req     ConferenceRequest
		wantErr bool
	}{
		{"draft", ConferenceRequest{Status: domainwf.StateDraft}, false},
		{"denied with one reason", ConferenceRequest{Status: domainwf.StateDenied, OrgDevDenialReason: "no budget"}, false},
		{"denied with no reason", ConferenceRequest{Status: domainwf.StateDenied}, true},
		{"denied with two reasons", ConferenceRequest{Status: domainwf.StateDenied, ManagerDenialReason: "a", AccountingDenialReason: "b"}, true},
		{"pending with reason", ConferenceRequest{Status: domainwf.StatePendingOrgDev, ManagerDenialReason: "a"}, true},
		{"approved with gl", ConferenceRequest{Status: domainwf.StateFullyApproved, GLCode: "6100-200", AccountingApprovalDate: &now}, false},
		{"approved without gl", ConferenceRequest{Status: domainwf.StateFullyApproved}, true},
		{"gl before approval", ConferenceRequest{Status: domainwf.StatePendingAccounting, GLCode: "6100"}, true},
		{"stale total", ConferenceRequest{Status: domainwf.StateDraft, Costs: Costs{Other: 5}}, true},
		{"unknown status", ConferenceRequest{Status: domainwf.State("Approved")}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.CheckConsistency()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConferenceRequest_DenialReason(t *testing.T) {
	assert.Equal(t, "over budget", (&ConferenceRequest{AccountingDenialReason: "over budget"}).DenialReason())
	assert.Equal(t, "", (&ConferenceRequest{}).DenialReason())
}

func TestConferenceRequest_IsSubmittedBy(t *testing.T) {
	req := &ConferenceRequest{SubmitterEmail: "Alice@Contoso.com"}
	assert.True(t, req.IsSubmittedBy("alice@contoso.com"))
	assert.False(t, req.IsSubmittedBy(""))
	assert.False(t, req.IsSubmittedBy("bob@contoso.com"))
}

func TestConferenceRequest_JSONFlattensCosts(t *testing.T) {
	req := ConferenceRequest{ID: 7, Costs: Costs{Lodging: 300}, Status: domainwf.StateDraft}
	req.RecalculateTotal()

	data, err := json.Marshal(req)
	require.NoError(t, err)

	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, 300.0, m["lodging_cost"])
	assert.Equal(t, 300.0, m["total_estimated_budget"])
	assert.Equal(t, "Draft", m["status"])
	assert.Equal(t, []interface{}{}, m["corporate_priorities"])
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-06-01")
	require.NoError(t, err)
	assert.Equal(t, "2025-06-01", d.String())

	d, err = ParseDate("2025-06-01T15:04:05Z")
	require.NoError(t, err)
	assert.Equal(t, "2025-06-01", d.String())

	d, err = ParseDate("")
	require.NoError(t, err)
	assert.True(t, d.IsZero())

	_, err = ParseDate("06/01/2025")
	assert.Error(t, err)
}

func TestDate_JSON(t *testing.T) {
	var holder struct {
		Start *Date `json:"start"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"start":"2025-09-30"}`), &holder))
	require.NotNil(t, holder.Start)
	assert.Equal(t, "2025-09-30", holder.Start.String())

	data, err := json.Marshal(holder)
	require.NoError(t, err)
	assert.JSONEq(t, `{"start":"2025-09-30"}`, string(data))

	assert.Error(t, json.Unmarshal([]byte(`{"start":20250930}`), &holder))
}

func TestSameEmail(t *testing.T) {
	assert.True(t, SameEmail(" Mgr@Contoso.com", "mgr@contoso.com"))
	assert.False(t, SameEmail("", ""))
	assert.False(t, SameEmail("a@x.com", "b@x.com"))
}
