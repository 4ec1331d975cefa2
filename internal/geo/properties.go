package geo

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// PropertyString renders a property value as text. Strings are kept as is,
// numbers keep their literal JSON form, null becomes the empty string, and
// objects and arrays are written as compact JSON.
func PropertyString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	}

	data, err := json.Marshal(normalize(v))
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}
