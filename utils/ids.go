package utils

import (
	"fmt"
	"sync/atomic"
	"time"
)

var notificationSeq uint64

// GenerateUniqueID generates a unique ID based on current timestamp
func GenerateUniqueID() string {
	return fmt.Sprintf("%x", time.Now().UnixNano())
}

// GenerateNotificationID generates a unique, roughly time-ordered inbox ID.
// The counter suffix keeps IDs unique even when events arrive within the
// same nanosecond tick.
func GenerateNotificationID() string {
	return fmt.Sprintf("notif_%s_%d", GenerateUniqueID(), atomic.AddUint64(&notificationSeq, 1))
}
