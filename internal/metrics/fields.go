package metrics

// Shared attribute keys for exported metrics.
const (
	AttrMethod  = "method"
	AttrPath    = "path"
	AttrStatus  = "status"
	AttrMode    = "scoring_mode"
	AttrOp      = "op"
	AttrSideOut = "side_out"
)
