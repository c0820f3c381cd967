package models

import "time"

// DeviceBinding ties one device digest to one verified account.
type DeviceBinding struct {
	DeviceID  string
	AccountID int64
	BoundAt   time.Time
}
