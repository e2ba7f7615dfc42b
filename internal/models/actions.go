package models

// Action is a client-triggerable operation on an entity.
type Action string

const (
	ActionStart  Action = "start"
	ActionPause  Action = "pause"
	ActionResume Action = "resume"
	ActionDelete Action = "delete"
)

// campaignTransitions holds the only transitions a client may trigger.
// completed is reached by the service alone.
var campaignTransitions = map[CampaignStatus]map[Action]CampaignStatus{
	CampaignDraft:     {ActionStart: CampaignActive},
	CampaignActive:    {ActionPause: CampaignPaused},
	CampaignPaused:    {ActionResume: CampaignActive},
	CampaignCompleted: {},
}

// Known reports whether the status belongs to the campaign state machine.
func (s CampaignStatus) Known() bool {
	_, ok := campaignTransitions[s]
	return ok
}

// Terminal reports whether no client action can move the campaign out of s.
func (s CampaignStatus) Terminal() bool {
	return s == CampaignCompleted
}

// Next returns the status a transition leads to, if the action is valid in s.
func (s CampaignStatus) Next(a Action) (CampaignStatus, bool) {
	next, ok := campaignTransitions[s][a]
	return next, ok
}

// CampaignActions returns the controls to offer for a campaign in status s,
// transitions first and delete last. Unknown statuses get no controls.
func CampaignActions(s CampaignStatus) []Action {
	transitions, ok := campaignTransitions[s]
	if !ok {
		return nil
	}
	actions := make([]Action, 0, 2)
	for _, a := range []Action{ActionStart, ActionPause, ActionResume} {
		if _, ok := transitions[a]; ok {
			actions = append(actions, a)
		}
	}
	return append(actions, ActionDelete)
}

// CampaignAllows reports whether the action is offered in status s.
func CampaignAllows(s CampaignStatus, a Action) bool {
	for _, allowed := range CampaignActions(s) {
		if allowed == a {
			return true
		}
	}
	return false
}

// Known reports whether the status belongs to the list state machine.
func (s ListStatus) Known() bool {
	switch s {
	case ListProcessing, ListCompleted, ListFailed:
		return true
	}
	return false
}

// Terminal reports whether the service has finished processing the list.
func (s ListStatus) Terminal() bool {
	return s == ListCompleted || s == ListFailed
}
