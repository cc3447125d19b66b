package services

import (
	"time"

	"github.com/fenilmodi00/ipo-tracker/models"
	"github.com/sirupsen/logrus"
)

// IPOAuditLogger writes a structured log line for every operator edit
type IPOAuditLogger struct {
	serviceName string
	logger      *logrus.Logger
}

func NewIPOAuditLogger(serviceName string) *IPOAuditLogger {
	return &IPOAuditLogger{
		serviceName: serviceName,
		logger:      logrus.StandardLogger(),
	}
}

// AuditEntry represents a single audit log entry
type AuditEntry struct {
	Timestamp   time.Time              `json:"timestamp"`
	ServiceName string                 `json:"service_name"`
	Operation   string                 `json:"operation"`
	EntityType  string                 `json:"entity_type"`
	EntityID    string                 `json:"entity_id"`
	Source      string                 `json:"source,omitempty"`
	Changes     map[string]interface{} `json:"changes,omitempty"`
	Success     bool                   `json:"success"`
	ErrorMsg    *string                `json:"error_msg,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// LogIPOUpdate records the outcome of one edit. logs holds the per-field
// changes the store applied, empty when nothing changed.
func (a *IPOAuditLogger) LogIPOUpdate(id string, update models.IPOUpdate, result models.UpdateResult, logs []models.IPOUpdateLog, err error) {
	entry := AuditEntry{
		Timestamp:   time.Now(),
		ServiceName: a.serviceName,
		Operation:   "UPDATE",
		EntityType:  "IPO",
		EntityID:    id,
		Source:      update.Source,
		Success:     err == nil,
		Metadata: map[string]interface{}{
			"requested_fields": update.Fields(),
			"matched":          result.Matched,
			"modified_count":   result.ModifiedCount,
		},
	}

	if len(logs) > 0 {
		entry.Changes = make(map[string]interface{}, len(logs))
		for _, change := range logs {
			entry.Changes[change.FieldName] = map[string]interface{}{"before": change.OldValue, "after": change.NewValue}
		}
	}

	if err != nil {
		msg := err.Error()
		entry.ErrorMsg = &msg
	}

	a.logAuditEntry(entry)
}

func (a *IPOAuditLogger) logAuditEntry(entry AuditEntry) {
	logFields := logrus.Fields{
		"component":       "audit",
		"audit_timestamp": entry.Timestamp,
		"service_name":    entry.ServiceName,
		"operation":       entry.Operation,
		"entity_type":     entry.EntityType,
		"entity_id":       entry.EntityID,
		"success":         entry.Success,
	}

	if entry.Source != "" {
		logFields["source"] = entry.Source
	}

	if entry.ErrorMsg != nil {
		logFields["error_msg"] = *entry.ErrorMsg
	}

	if len(entry.Changes) > 0 {
		logFields["changes"] = entry.Changes
	}

	for key, value := range entry.Metadata {
		logFields["meta_"+key] = value
	}

	if entry.Success {
		a.logger.WithFields(logFields).Info("Audit log entry")
	} else {
		a.logger.WithFields(logFields).Warn("Audit log entry - operation failed")
	}
}
