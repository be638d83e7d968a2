package operation

import "time"

// RuntimeInfo mirrors the shape of the Node tree actually executed,
// recording what each node estimated versus what actually happened, for
// diagnostics and the CLI's table dump.
type RuntimeInfo struct {
	Descriptor    string
	EstimatedRows uint64
	ActualRows    int
	EstimatedCost uint64
	Runtime       time.Duration
	CacheHit      bool
	Children      []*RuntimeInfo
}

// Collect walks node and its already-computed result, building the
// runtime-info tree. children must be the already-collected RuntimeInfo
// for node.Children(), in the same order, since Collect does not itself
// re-run ComputeResult on children it has no result for.
func Collect(node Node, result *ResultTable, runtime time.Duration, cacheHit bool, children []*RuntimeInfo) *RuntimeInfo {
	actual := 0
	if result != nil {
		actual = result.Rows
	}
	return &RuntimeInfo{
		Descriptor:    node.Descriptor(),
		EstimatedRows: node.SizeEstimate(),
		ActualRows:    actual,
		EstimatedCost: node.CostEstimate(),
		Runtime:       runtime,
		CacheHit:      cacheHit,
		Children:      children,
	}
}

// TotalRuntime sums this node's runtime with all descendants', used to
// distinguish self time from subtree time when the caller wants it.
func (ri *RuntimeInfo) TotalRuntime() time.Duration {
	total := ri.Runtime
	for _, c := range ri.Children {
		total += c.TotalRuntime()
	}
	return total
}
