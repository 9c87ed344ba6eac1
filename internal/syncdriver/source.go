package syncdriver

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// JSONFile returns a Fetcher that decodes path on every call.
func JSONFile[T any](path string) Fetcher[T] {
	return func(ctx context.Context) (T, error) {
		var out T
		if err := ctx.Err(); err != nil {
			return out, err
		}
		// #nosec G304 -- path comes from operator configuration
		data, err := os.ReadFile(path)
		if err != nil {
			return out, fmt.Errorf("read %s: %w", path, err)
		}
		if err := json.Unmarshal(data, &out); err != nil {
			return out, fmt.Errorf("decode %s: %w", path, err)
		}
		return out, nil
	}
}
