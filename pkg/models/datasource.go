package models

import (
	"time"

	"github.com/google/uuid"
)

// EngineType identifies a supported database engine.
// The set is closed: connectors are resolved through a fixed table,
// not an open registry.
type EngineType string

const (
	EngineMySQL      EngineType = "mysql"
	EngineMariaDB    EngineType = "mariadb"
	EnginePostgreSQL EngineType = "postgresql"
)

// Valid reports whether the engine type is one of the supported engines.
func (e EngineType) Valid() bool {
	switch e {
	case EngineMySQL, EngineMariaDB, EnginePostgreSQL:
		return true
	}
	return false
}

// IsMySQLFamily reports whether the engine speaks the MySQL dialect.
func (e EngineType) IsMySQLFamily() bool {
	return e == EngineMySQL || e == EngineMariaDB
}

// DataSourceStatus tracks connectivity state, updated on each connection test.
type DataSourceStatus string

const (
	StatusActive   DataSourceStatus = "active"
	StatusInactive DataSourceStatus = "inactive"
	StatusError    DataSourceStatus = "error"
)

// DataSource represents a configured external database connection owned
// by a user. ConnectionConfig holds either the encrypted configuration
// string (at rest) or an already-decoded map[string]any (transient, for
// connector use). Secrets in the config must never be logged in full.
type DataSource struct {
	ID               uuid.UUID        `json:"id"`
	UserID           uuid.UUID        `json:"user_id"`
	Name             string           `json:"name"`
	Engine           EngineType       `json:"engine"`
	ConnectionConfig any              `json:"-"`
	Status           DataSourceStatus `json:"status"`
	LastTestedAt     *time.Time       `json:"last_tested_at,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}
