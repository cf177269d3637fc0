// Package handler maps handler ids from OnUIEvent declarations to actions,
// and holds the extension point for the reserved update opcodes.
//
// No action types are built in yet: an unregistered handler id falls back
// to a log line, as do the update hooks.
package handler

import (
	"github.com/tliron/commonlog"
)

func logger() commonlog.Logger {
	return commonlog.GetLogger("kbj.handler")
}

// Invocation identifies one dispatched interaction.
type Invocation struct {
	HandlerID uint8
	ElementID uint8
}

// Action runs when its handler id is dispatched.
type Action func(Invocation)

// Registry associates handler ids with actions. It is not safe for
// concurrent use; interaction callbacks are delivered one at a time.
type Registry struct {
	actions map[uint8]Action
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{actions: make(map[uint8]Action)}
}

// Register binds action to id, replacing any previous binding.
// A nil action removes the binding.
func (r *Registry) Register(id uint8, action Action) {
	if action == nil {
		delete(r.actions, id)
		return
	}
	r.actions[id] = action
}

// Registered reports whether id has an action.
func (r *Registry) Registered(id uint8) bool {
	_, ok := r.actions[id]
	return ok
}

// Dispatch runs the action registered for handlerID. Without one it logs
// the interaction and returns false.
func (r *Registry) Dispatch(handlerID, elementID uint8) bool {
	inv := Invocation{HandlerID: handlerID, ElementID: elementID}
	action, ok := r.actions[handlerID]
	if !ok {
		logger().Noticef("element %d: no action for handler %d", elementID, handlerID)
		return false
	}
	action(inv)
	return true
}
