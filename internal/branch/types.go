// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Branch existence states and resolution actions

package branch

// State is the existence of the target branch, evaluated fresh each run.
type State int

const (
	// NotExists: the branch exists neither locally nor on origin
	NotExists State = iota
	// ExistsLocalOnly: a local branch exists, origin has none
	ExistsLocalOnly
	// ExistsRemoteOnly: origin has the branch, no local checkout
	ExistsRemoteOnly
	// ExistsBoth: the branch exists locally and on origin
	ExistsBoth
)

// String returns a human-readable state name
func (s State) String() string {
	switch s {
	case ExistsLocalOnly:
		return "exists-local"
	case ExistsRemoteOnly:
		return "exists-remote"
	case ExistsBoth:
		return "exists-both"
	default:
		return "not-exists"
	}
}

// Action is what the resolver did to bring the workspace onto the target branch.
type Action int

const (
	// ActionCreated: target created fresh from the source branch
	ActionCreated Action = iota
	// ActionCheckedOutLocal: existing local target checked out as-is
	ActionCheckedOutLocal
	// ActionCheckedOutRemote: local target created tracking origin and checked out
	ActionCheckedOutRemote
	// ActionRecreated: local target deleted and recreated from source
	ActionRecreated
	// ActionReset: target checked out and hard-reset to source
	ActionReset
)

// String returns a human-readable action name
func (a Action) String() string {
	switch a {
	case ActionCheckedOutLocal:
		return "checked-out-local"
	case ActionCheckedOutRemote:
		return "checked-out-remote"
	case ActionRecreated:
		return "recreated"
	case ActionReset:
		return "reset"
	default:
		return "created"
	}
}
