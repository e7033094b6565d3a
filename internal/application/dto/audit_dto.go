package dto

import "time"

// AuditLogResponse entrada de auditoría para el visor administrativo.
type AuditLogResponse struct {
	ID            string         `json:"id"`
	ActorID       string         `json:"actor_id"`
	TenantID      *string        `json:"tenant_id"`
	Action        string         `json:"action"`
	ResourceType  string         `json:"resource_type"`
	ResourceID    string         `json:"resource_id"`
	Timestamp     time.Time      `json:"timestamp"`
	IPAddress     string         `json:"ip_address,omitempty"`
	UserAgent     string         `json:"user_agent,omitempty"`
	CorrelationID string         `json:"correlation_id,omitempty"`
	Details       map[string]any `json:"details"`
	Severity      string         `json:"severity"`
	Status        string         `json:"status"`
}

// AuditListResponse página de auditoría.
type AuditListResponse struct {
	Items []AuditLogResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// AuditListQuery filtros del listado global (solo system_level). From/To en RFC3339.
type AuditListQuery struct {
	Action   string `query:"action"`
	ActorID  string `query:"actor_id"`
	Severity string `query:"severity"`
	Status   string `query:"status"`
	From     string `query:"from"`
	To       string `query:"to"`
	PageRequest
}
