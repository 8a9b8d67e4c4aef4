package magsci

import (
	"encoding/json"
	"os"
)

// WriteJSON serialises data as indented JSON to path, refusing to clobber an
// existing file unless force is set.
func WriteJSON(path string, data any, force bool) (int, error) {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return 0, ErrOverwriteRefused
		}
	}

	jsn, err := json.MarshalIndent(data, "", "    ")
	if err != nil {
		return 0, err
	}

	if err := os.WriteFile(path, jsn, 0o644); err != nil {
		return 0, err
	}
	return len(jsn), nil
}

// JSONDumps constructs a compact JSON string of data.
func JSONDumps(data any) (string, error) {
	jsn, err := json.Marshal(data)
	if err != nil {
		return "", err
	}
	return string(jsn), nil
}

// JSONIndentDumps constructs a JSON string of data using a four-space indent.
func JSONIndentDumps(data any) (string, error) {
	jsn, err := json.MarshalIndent(data, "", "    ")
	if err != nil {
		return "", err
	}
	return string(jsn), nil
}
