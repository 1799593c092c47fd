package logging

// Common structured log field keys to keep logs searchable/consistent.
const (
	FieldService    = "service"
	FieldVersion    = "version"
	FieldRequestID  = "request_id"
	FieldPath       = "path"
	FieldMethod     = "method"
	FieldStatusCode = "status_code"
	FieldMatchID    = "match_id"
	FieldGameNumber = "game_number"
	FieldOwnerID    = "owner_id"
	FieldCount      = "count"
	FieldDurationMS = "duration_ms"
)
