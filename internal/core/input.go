package core

import "fmt"

// Action is an abstract player intent, decoupled from the physical input device.
// The wire form is the camelCase name (e.g. "moveLeft", "softDrop_release").
type Action int

const (
	ActionNone Action = iota
	ActionMoveLeft
	ActionMoveLeftRelease
	ActionMoveRight
	ActionMoveRightRelease
	ActionSoftDrop
	ActionSoftDropRelease
	ActionHardDrop
	ActionRotateCW
	ActionRotateCCW
	ActionHold
)

var actionNames = map[Action]string{
	ActionMoveLeft:         "moveLeft",
	ActionMoveLeftRelease:  "moveLeft_release",
	ActionMoveRight:        "moveRight",
	ActionMoveRightRelease: "moveRight_release",
	ActionSoftDrop:         "softDrop",
	ActionSoftDropRelease:  "softDrop_release",
	ActionHardDrop:         "hardDrop",
	ActionRotateCW:         "rotateCW",
	ActionRotateCCW:        "rotateCCW",
	ActionHold:             "hold",
}

// Actions returns every real action in declaration order.
func Actions() []Action {
	return []Action{
		ActionMoveLeft, ActionMoveLeftRelease,
		ActionMoveRight, ActionMoveRightRelease,
		ActionSoftDrop, ActionSoftDropRelease,
		ActionHardDrop, ActionRotateCW, ActionRotateCCW, ActionHold,
	}
}

// String returns the wire name for the action.
func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return "none"
}

// Release returns the release counterpart of a held action, or ActionNone
// for actions that are not held.
func (a Action) Release() Action {
	switch a {
	case ActionMoveLeft:
		return ActionMoveLeftRelease
	case ActionMoveRight:
		return ActionMoveRightRelease
	case ActionSoftDrop:
		return ActionSoftDropRelease
	default:
		return ActionNone
	}
}

// ParseAction converts a wire name into an Action.
func ParseAction(s string) (Action, error) {
	for a, name := range actionNames {
		if name == s {
			return a, nil
		}
	}
	return ActionNone, fmt.Errorf("core: unknown action %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (a Action) MarshalText() ([]byte, error) {
	if _, ok := actionNames[a]; !ok {
		return nil, fmt.Errorf("core: cannot encode action %d", int(a))
	}
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Action) UnmarshalText(text []byte) error {
	parsed, err := ParseAction(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
