package application

import (
	"fmt"

	"memvid-mcp-server/internal/domain"
)

// getStringParam extracts a string parameter from the arguments map.
// Returns an error if the parameter is required but missing or not a string.
func getStringParam(args map[string]interface{}, name string, required bool) (string, error) {
	value, exists := args[name]
	if !exists {
		if required {
			return "", &domain.Error{
				Code:    domain.InvalidParams,
				Message: fmt.Sprintf("missing required parameter: %s", name),
			}
		}
		return "", nil
	}

	strValue, ok := value.(string)
	if !ok {
		return "", &domain.Error{
			Code:    domain.InvalidParams,
			Message: fmt.Sprintf("parameter %s must be a string", name),
		}
	}

	return strValue, nil
}

// getIntParam extracts an optional integer parameter from the arguments
// map. Returns nil when the parameter is absent so that zero and "not
// provided" stay distinct. JSON numbers arrive as float64.
func getIntParam(args map[string]interface{}, name string) (*int, error) {
	value, exists := args[name]
	if !exists {
		return nil, nil
	}

	switch v := value.(type) {
	case float64:
		n := int(v)
		return &n, nil
	case int:
		return &v, nil
	default:
		return nil, &domain.Error{
			Code:    domain.InvalidParams,
			Message: fmt.Sprintf("parameter %s must be a number", name),
		}
	}
}

// getInt64Param extracts an optional 64-bit integer parameter, used for
// Unix-second timestamps.
func getInt64Param(args map[string]interface{}, name string) (*int64, error) {
	value, exists := args[name]
	if !exists {
		return nil, nil
	}

	switch v := value.(type) {
	case float64:
		n := int64(v)
		return &n, nil
	case int:
		n := int64(v)
		return &n, nil
	case int64:
		return &v, nil
	default:
		return nil, &domain.Error{
			Code:    domain.InvalidParams,
			Message: fmt.Sprintf("parameter %s must be a number", name),
		}
	}
}

// getStringSliceParam extracts an optional array-of-strings parameter.
// Element order is preserved; a nil slice is returned when absent.
func getStringSliceParam(args map[string]interface{}, name string) ([]string, error) {
	value, exists := args[name]
	if !exists {
		return nil, nil
	}

	items, ok := value.([]interface{})
	if !ok {
		return nil, &domain.Error{
			Code:    domain.InvalidParams,
			Message: fmt.Sprintf("parameter %s must be an array of strings", name),
		}
	}

	result := make([]string, 0, len(items))
	for _, item := range items {
		str, ok := item.(string)
		if !ok {
			return nil, &domain.Error{
				Code:    domain.InvalidParams,
				Message: fmt.Sprintf("parameter %s must contain only strings", name),
			}
		}
		result = append(result, str)
	}

	return result, nil
}
