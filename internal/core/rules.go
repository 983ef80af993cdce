package core

import "mskboard/pkg/domain"

// RulesEngine aliases the domain rules engine so callers need not import domain.
type RulesEngine = domain.RulesEngine

// NewRulesEngine constructs an empty engine.
func NewRulesEngine() *RulesEngine {
	return domain.NewRulesEngine()
}

// NewDefaultRulesEngine builds a rules engine with the built-in policy set.
func NewDefaultRulesEngine() *RulesEngine {
	engine := domain.NewRulesEngine()
	engine.Register(NewUniqueIDRule())
	engine.Register(NewTimestampOrderRule())
	engine.Register(NewEnumerationRule())
	return engine
}
