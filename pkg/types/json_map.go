package types

// JSONMap is a free-form jsonb payload. The lifecycle engine treats it as
// opaque.
type JSONMap map[string]any
