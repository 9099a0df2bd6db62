package helpers

import "github.com/andrescamacho/autobuild-go/internal/application/planner"

// FuncStrategy is a strategy assembled from closures. Nil hooks do nothing.
type FuncStrategy struct {
	StrategyName string
	Pre          func(b *planner.Builder)
	Step         func(b *planner.Builder)
	Post         func(b *planner.Builder)
}

func (s *FuncStrategy) Name() string {
	if s.StrategyName == "" {
		return "func"
	}
	return s.StrategyName
}

func (s *FuncStrategy) PreBuild(b *planner.Builder) {
	if s.Pre != nil {
		s.Pre(b)
	}
}

func (s *FuncStrategy) BuildStep(b *planner.Builder) {
	if s.Step != nil {
		s.Step(b)
	}
}

func (s *FuncStrategy) PostBuild(b *planner.Builder) {
	if s.Post != nil {
		s.Post(b)
	}
}
