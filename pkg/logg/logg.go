package logg

// Field keys shared by every component logger.
const (
	Layer     = "layer"
	Operation = "operation"
	RequestID = "request_id"
	URL       = "url"
	Selector  = "selector"
	Attempt   = "attempt"
	Kind      = "kind"
	Stage     = "stage"
	Engine    = "engine"
)
