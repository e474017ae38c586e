package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"
)

// NewID generates a collision-resistant identifier without any
// coordination between devices: a millisecond timestamp in base36
// followed by random hex. The 'm' prefix marks rows minted on a device,
// so server-assigned ids (UUIDs) are distinguishable at a glance.
func NewID() string {
	ts := strconv.FormatInt(time.Now().UnixMilli(), 36)

	buf := make([]byte, 5)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing is effectively fatal elsewhere; degrade to
		// a nanosecond suffix rather than panic in the middle of a sale.
		return fmt.Sprintf("m%s%x", ts, time.Now().UnixNano())
	}
	return "m" + ts + hex.EncodeToString(buf)
}
