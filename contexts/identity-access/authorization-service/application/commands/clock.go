package commands

import (
	"time"

	"aegis/contexts/identity-access/authorization-service/ports"
)

func applicationNow(clock ports.Clock) time.Time {
	if clock != nil {
		return clock.Now().UTC()
	}
	return time.Now().UTC()
}
