package orm

import (
	"fmt"
	"time"

	"github.com/CaliLuke/go-relmap/model"
)

// coerce normalizes a value into the canonical Go representation of a
// column kind: int64, float64, bool, string, or time.Time. Driver scans
// come back as int64/float64/[]byte/string and user assignments as
// native Go types; both funnel through here.
func coerce(kind model.ValueKind, value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	switch kind {
	case model.KindInt:
		switch v := value.(type) {
		case int64:
			return v, nil
		case int:
			return int64(v), nil
		case int32:
			return int64(v), nil
		case float64:
			return int64(v), nil
		}
	case model.KindFloat:
		switch v := value.(type) {
		case float64:
			return v, nil
		case float32:
			return float64(v), nil
		case int64:
			return float64(v), nil
		case int:
			return float64(v), nil
		}
	case model.KindBool:
		switch v := value.(type) {
		case bool:
			return v, nil
		case int64:
			return v != 0, nil
		}
	case model.KindString:
		switch v := value.(type) {
		case string:
			return v, nil
		case []byte:
			return string(v), nil
		}
	case model.KindTime:
		switch v := value.(type) {
		case time.Time:
			return v, nil
		case string:
			t, err := time.Parse(time.RFC3339Nano, v)
			if err != nil {
				return nil, fmt.Errorf("cannot parse %q as timestamp: %w", v, err)
			}
			return t, nil
		case []byte:
			t, err := time.Parse(time.RFC3339Nano, string(v))
			if err != nil {
				return nil, fmt.Errorf("cannot parse %q as timestamp: %w", v, err)
			}
			return t, nil
		}
	}
	return nil, fmt.Errorf("cannot use %T as %s", value, kind)
}
