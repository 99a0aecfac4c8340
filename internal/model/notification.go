package model

import "time"

// Notification is what the notifier delivers when an alert triggers.
type Notification struct {
	AlertID      string
	ProductName  string
	StoreName    string
	ProductURL   string
	Currency     string
	CurrentPrice float64
	TargetPrice  float64
	TriggeredAt  time.Time
}
