package era5

import "fmt"

// DecodeError reports a file that could not be opened or parsed. It only
// concerns that one file.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// SchemaError reports a file whose layout lacks something the export needs,
// such as a key coordinate.
type SchemaError struct {
	Path   string
	Reason string
	Err    error
}

func (e *SchemaError) Error() string {
	if e.Path == "" {
		return "schema mismatch: " + e.Reason
	}
	return fmt.Sprintf("schema mismatch in %s: %s", e.Path, e.Reason)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

// LevelCollisionError reports two distinct vertical levels whose integer
// names coincide, e.g. 850.25 and 850.75 both naming t_850.
type LevelCollisionError struct {
	Column string
	First  float64
	Second float64
}

func (e *LevelCollisionError) Error() string {
	return fmt.Sprintf("levels %v and %v both map to column %q", e.First, e.Second, e.Column)
}
