package datasource

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/luminabi/lumina-engine/pkg/apperrors"
	"github.com/luminabi/lumina-engine/pkg/crypto"
	"github.com/luminabi/lumina-engine/pkg/logging"
	"github.com/luminabi/lumina-engine/pkg/models"
)

// StatusRecorder persists datasource status transitions after a
// connection test. Implementations live with the datasource storage.
type StatusRecorder interface {
	RecordStatus(ctx context.Context, id string, status models.DataSourceStatus, testedAt time.Time) error
}

// TestResult is the outcome of a connection test. Message is safe to
// surface to users; engine internals are sanitized out.
type TestResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Manager resolves engine types to connectors and fronts every
// connector call with credential decryption, error classification and
// status bookkeeping.
type Manager struct {
	connectors map[models.EngineType]Connector
	encryptor  *crypto.CredentialEncryptor
	status     StatusRecorder
	logger     *zap.Logger
}

// NewManager builds the manager with the fixed engine resolution table.
// The status recorder may be nil when no persistence layer is wired.
func NewManager(encryptor *crypto.CredentialEncryptor, status StatusRecorder, logger *zap.Logger) *Manager {
	mysqlConn := NewMySQLConnector()
	return &Manager{
		connectors: map[models.EngineType]Connector{
			models.EngineMySQL:      mysqlConn,
			models.EngineMariaDB:    mysqlConn,
			models.EnginePostgreSQL: NewPostgreSQLConnector(),
		},
		encryptor: encryptor,
		status:    status,
		logger:    logger.Named("datasource-manager"),
	}
}

// Connector resolves the connector for an engine type.
func (m *Manager) Connector(engine models.EngineType) (Connector, error) {
	conn, ok := m.connectors[engine]
	if !ok {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrUnsupportedEngine, engine)
	}
	return conn, nil
}

// ConfigFields returns the configuration descriptors for an engine.
func (m *Manager) ConfigFields(engine models.EngineType) ([]ConfigField, error) {
	conn, err := m.Connector(engine)
	if err != nil {
		return nil, err
	}
	return conn.ConfigFields(), nil
}

// decodedConfig yields the connection config as a map, decrypting when
// the datasource carries the at-rest encrypted form.
func (m *Manager) decodedConfig(ds *models.DataSource) (map[string]any, error) {
	switch cfg := ds.ConnectionConfig.(type) {
	case map[string]any:
		return cfg, nil
	case string:
		if m.encryptor == nil {
			return nil, fmt.Errorf("%w: encrypted config but no encryptor configured", apperrors.ErrConnectionFailure)
		}
		decoded, err := m.encryptor.DecryptConfig(cfg)
		if err != nil {
			return nil, fmt.Errorf("%w: decrypt connection config: %w", apperrors.ErrConnectionFailure, err)
		}
		return decoded, nil
	default:
		return nil, fmt.Errorf("%w: connection config missing", apperrors.ErrConnectionFailure)
	}
}

// TestConnection tests connectivity, updates the datasource status in
// place and persists the transition when a recorder is wired. The
// returned result never exposes raw engine errors.
func (m *Manager) TestConnection(ctx context.Context, ds *models.DataSource) TestResult {
	now := time.Now().UTC()
	ds.LastTestedAt = &now

	result := m.runTest(ctx, ds)
	if result.Success {
		ds.Status = models.StatusActive
	} else {
		ds.Status = models.StatusError
	}

	if m.status != nil {
		if err := m.status.RecordStatus(ctx, ds.ID.String(), ds.Status, now); err != nil {
			m.logger.Warn("failed to persist datasource status",
				zap.String("datasource_id", ds.ID.String()),
				zap.Error(err))
		}
	}
	return result
}

func (m *Manager) runTest(ctx context.Context, ds *models.DataSource) TestResult {
	conn, err := m.Connector(ds.Engine)
	if err != nil {
		return TestResult{Success: false, Message: fmt.Sprintf("unsupported engine: %s", ds.Engine)}
	}
	config, err := m.decodedConfig(ds)
	if err != nil {
		m.logger.Warn("connection test failed to decode config",
			zap.String("datasource_id", ds.ID.String()),
			zap.Error(err))
		return TestResult{Success: false, Message: "connection configuration is invalid"}
	}
	if err := conn.Test(ctx, config); err != nil {
		m.logger.Info("connection test failed",
			zap.String("datasource_id", ds.ID.String()),
			zap.String("engine", string(ds.Engine)),
			zap.Error(err))
		return TestResult{Success: false, Message: logging.SanitizeError(err)}
	}
	return TestResult{Success: true, Message: "Connection successful"}
}

// ExecuteQuery runs a statement against the datasource's database.
func (m *Manager) ExecuteQuery(ctx context.Context, ds *models.DataSource, sqlText string, params []any) (*QueryData, error) {
	conn, config, err := m.resolve(ds)
	if err != nil {
		return nil, err
	}
	data, err := conn.Query(ctx, config, sqlText, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrExecutionFailure, logging.SanitizeError(err))
	}
	return data, nil
}

// GetSchema retrieves the full normalized schema of the datasource.
func (m *Manager) GetSchema(ctx context.Context, ds *models.DataSource) ([]models.TableSchema, error) {
	conn, config, err := m.resolve(ds)
	if err != nil {
		return nil, err
	}
	schema, err := conn.GetSchema(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrSchemaUnavailable, logging.SanitizeError(err))
	}
	return schema, nil
}

// ListTables lists the base tables of the datasource's database.
func (m *Manager) ListTables(ctx context.Context, ds *models.DataSource) ([]string, error) {
	conn, config, err := m.resolve(ds)
	if err != nil {
		return nil, err
	}
	tables, err := conn.ListTables(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrSchemaUnavailable, logging.SanitizeError(err))
	}
	return tables, nil
}

// TableColumns retrieves the normalized columns of one table.
func (m *Manager) TableColumns(ctx context.Context, ds *models.DataSource, table string) ([]models.ColumnInfo, error) {
	conn, config, err := m.resolve(ds)
	if err != nil {
		return nil, err
	}
	columns, err := conn.TableColumns(ctx, config, table)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrSchemaUnavailable, logging.SanitizeError(err))
	}
	return columns, nil
}

func (m *Manager) resolve(ds *models.DataSource) (Connector, map[string]any, error) {
	conn, err := m.Connector(ds.Engine)
	if err != nil {
		return nil, nil, err
	}
	config, err := m.decodedConfig(ds)
	if err != nil {
		return nil, nil, err
	}
	return conn, config, nil
}
