package hooks

import "github.com/sanketnighot/hookified/pkg/types"

// Lifecycle rules:
//
//	ACTIVE <-> PAUSED   explicit user toggle only
//	* -> ERROR          set when an execution path finds the hook's own
//	                    configuration broken; transient action failures
//	                    never flip status
//	ERROR -> ACTIVE     explicit user toggle only (re-activation implies
//	                    the user fixed the config); never auto-recovered
//
// isActive is orthogonal: PAUSED implies isActive=false, while ACTIVE and
// ERROR hooks may carry either value during edits. External registrations
// are only kept live while isActive is true.

// toggledStatus returns the lifecycle status after a user toggle.
func toggledStatus(current types.HookStatus, active bool) types.HookStatus {
	if active {
		return types.HookStatusActive
	}
	if current == types.HookStatusError {
		// Disabling an ERROR hook doesn't clear the error; only an
		// explicit re-activation does.
		return types.HookStatusError
	}
	return types.HookStatusPaused
}
