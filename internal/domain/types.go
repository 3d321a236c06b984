package domain

type KeepPolicy string

const (
	KeepShortestPath KeepPolicy = "shortest-path"
	KeepOldest       KeepPolicy = "oldest"
)

func (policy KeepPolicy) Valid() bool {
	switch policy {
	case KeepShortestPath, KeepOldest:
		return true
	default:
		return false
	}
}

type ActionType string

const (
	ActionReport ActionType = "report"
	ActionMove   ActionType = "move"
	ActionDelete ActionType = "delete"
)

func (action ActionType) Valid() bool {
	switch action {
	case ActionReport, ActionMove, ActionDelete:
		return true
	default:
		return false
	}
}
