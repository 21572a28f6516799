package models

import "time"

type ConnectionProvider string

const (
	ProviderS3      ConnectionProvider = "S3"
	ProviderWebhook ConnectionProvider = "WEBHOOK"
)

type BackupStatus string

const (
	BackupSuccess BackupStatus = "SUCCESS"
	BackupError   BackupStatus = "ERROR"
	BackupPending BackupStatus = "PENDING"
	BackupNever   BackupStatus = "NEVER"
)

// DatabaseConnection é um destino de backup configurado pelo admin.
type DatabaseConnection struct {
	ID               string             `json:"id"`
	Provider         ConnectionProvider `json:"provider"`
	Name             string             `json:"name"`
	IsActive         bool               `json:"isActive"`
	EndpointURL      string             `json:"endpointUrl"`
	APIKey           string             `json:"apiKey,omitempty"`
	LastBackupStatus BackupStatus       `json:"lastBackupStatus"`
	LastBackupTime   *time.Time         `json:"lastBackupTime,omitempty"`
	LastBackupError  string             `json:"lastBackupError,omitempty"`
}

// Dataset is the full snapshot pushed by backups.
type Dataset struct {
	ExportedAt time.Time       `json:"exportedAt"`
	Users      []User          `json:"users"`
	Clients    []Client        `json:"clients"`
	Services   []ServiceRecord `json:"services"`
	Expenses   []ExpenseRecord `json:"expenses"`
	Logs       []ServiceLog    `json:"logs"`
}
