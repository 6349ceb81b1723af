package services

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// newOrderID builds an uppercase order id: "FB", base36 milliseconds, "-", six random hex chars.
// Uniqueness is enforced by the bookings_order_id_key index, not by this function.
func newOrderID(now time.Time) string {
	stamp := strconv.FormatInt(now.UnixMilli(), 36)
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	return strings.ToUpper("FB" + stamp + "-" + suffix)
}
