package order

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const orderNumberPrefix = "ORD"

// NewOrderNumber returns a human readable order number of the form
// ORD-YYYYMMDD-XXXXXXXX. The suffix comes from a random UUID, so numbers are
// unique without a sequence table.
func NewOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return orderNumberPrefix + "-" + now.UTC().Format("20060102") + "-" + suffix
}
