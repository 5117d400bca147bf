package workflow

import "fmt"

// StateMachineBuilder collects the transition table and builds machines from it
type StateMachineBuilder interface {
	// Configure returns the configuration for transitions leaving the given state
	Configure(state State) StateConfiguration

	// Build creates a new state machine positioned at initialState
	Build(initialState State) StateMachine
}

// StateConfiguration configures transitions for a single source state
type StateConfiguration interface {
	// Permit allows a trigger to move to the target state. Permitting the
	// same trigger again replaces the earlier target.
	Permit(trigger Trigger, toState State) StateConfiguration
}

type transitionTable map[State]map[Trigger]State

type stateConfig struct {
	fromState State
	table     transitionTable
}

type stateMachineBuilder struct {
	table transitionTable
}

type stateMachine struct {
	currentState State
	table        transitionTable
}

// NewBuilder creates a new state machine builder
func NewBuilder() StateMachineBuilder {
	return &stateMachineBuilder{
		table: make(transitionTable),
	}
}

// Configure returns a state configuration for the given state
func (b *stateMachineBuilder) Configure(state State) StateConfiguration {
	if !state.IsValid() {
		panic(fmt.Sprintf("invalid state: %s", state))
	}

	if _, exists := b.table[state]; !exists {
		b.table[state] = make(map[Trigger]State)
	}

	return &stateConfig{fromState: state, table: b.table}
}

// Build creates a new state machine with its own copy of the transition table,
// so machines built from the same builder never share state.
func (b *stateMachineBuilder) Build(initialState State) StateMachine {
	if !initialState.IsValid() {
		panic(fmt.Sprintf("invalid initial state: %s", initialState))
	}

	table := make(transitionTable, len(b.table))
	for state, triggers := range b.table {
		copied := make(map[Trigger]State, len(triggers))
		for trigger, to := range triggers {
			copied[trigger] = to
		}
		table[state] = copied
	}

	return &stateMachine{
		currentState: initialState,
		table:        table,
	}
}

// Permit allows a trigger to transition to the target state
func (c *stateConfig) Permit(trigger Trigger, toState State) StateConfiguration {
	if !toState.IsValid() {
		panic(fmt.Sprintf("invalid target state: %s", toState))
	}

	c.table[c.fromState][trigger] = toState
	return c
}

// State returns the current state
func (m *stateMachine) State() State {
	return m.currentState
}

// Fire executes the trigger
func (m *stateMachine) Fire(trigger Trigger) error {
	next, ok := m.table[m.currentState][trigger]
	if !ok {
		return fmt.Errorf("%w: cannot fire %s from %q", ErrInvalidTransition, trigger, m.currentState)
	}
	m.currentState = next
	return nil
}
