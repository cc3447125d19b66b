package models

import "time"

// IPOUpdateLog is one audit row per changed field of an operator edit
type IPOUpdateLog struct {
	ID        string    `json:"id"`
	IPOID     string    `json:"ipo_id"`
	FieldName string    `json:"field_name"`
	OldValue  string    `json:"old_value"`
	NewValue  string    `json:"new_value"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
}
