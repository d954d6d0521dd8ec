package planner

const DefaultFallbackMinRoutes = 5

// FallbackPolicy decides when the mode constrained routing result is too thin to use.
// The unconstrained query is used when fewer than min(MinRoutes, alternatives) routes come back.
type FallbackPolicy struct {
	MinRoutes int
}

func DefaultFallbackPolicy() FallbackPolicy {
	return FallbackPolicy{MinRoutes: DefaultFallbackMinRoutes}
}

func (p FallbackPolicy) Threshold(alternatives int) int {
	minRoutes := p.MinRoutes
	if minRoutes <= 0 {
		minRoutes = DefaultFallbackMinRoutes
	}

	return min(minRoutes, alternatives)
}

func (p FallbackPolicy) ShouldFallback(routeCount int, alternatives int) bool {
	return routeCount < p.Threshold(alternatives)
}
