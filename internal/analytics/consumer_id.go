package analytics

import (
	"fmt"
	"os"
	"time"
)

// NewConsumerID returns a consumer name unique to this process for the
// page view consumer group.
func NewConsumerID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "api"
	}
	return fmt.Sprintf("pageviews-%s-%d-%x", host, os.Getpid(), time.Now().UnixNano())
}
