package orders

import (
	"fmt"
	"strconv"
	"strings"
)

const displayPrefix = "ORD-"

// DisplayID renders a raw order id the way the admin UI shows it:
// 42 -> "ORD-000042".
func DisplayID(id int64) string {
	return fmt.Sprintf("%s%06d", displayPrefix, id)
}

// ParseOrderID accepts both the raw numeric id and the ORD- display form.
func ParseOrderID(s string) (int64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, displayPrefix)
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid order id: %q", s)
	}
	return id, nil
}
