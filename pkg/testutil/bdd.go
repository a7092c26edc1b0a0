package testutil

import "testing"

// Scenario runs Given/When/Then steps as ordered subtests. Once a step fails
// the remaining steps are skipped, since they depend on its state.
type Scenario struct {
	t      *testing.T
	broken bool
}

func NewScenario(t *testing.T) *Scenario {
	return &Scenario{t: t}
}

func (s *Scenario) Given(desc string, fn func(t *testing.T)) {
	s.t.Helper()
	s.step("Given "+desc, fn)
}

func (s *Scenario) When(desc string, fn func(t *testing.T)) {
	s.t.Helper()
	s.step("When "+desc, fn)
}

func (s *Scenario) Then(desc string, fn func(t *testing.T)) {
	s.t.Helper()
	s.step("Then "+desc, fn)
}

func (s *Scenario) step(name string, fn func(t *testing.T)) {
	s.t.Helper()
	if s.broken {
		s.t.Run(name, func(t *testing.T) { t.Skip("earlier step failed") })
		return
	}
	if !s.t.Run(name, fn) {
		s.broken = true
	}
}
