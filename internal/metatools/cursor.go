package metatools

import "encoding/base64"

// encodeCursor and decodeCursor mirror registry's own opaque-cursor
// encoding (registry.go) for list_tools_meta, which paginates its own
// usage-then-name ordering rather than registry.ListNames' name-only order.
func encodeCursor(last string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(last))
}

func decodeCursor(cursor string) (string, error) {
	b, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
