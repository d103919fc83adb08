package datasource

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/luminabi/lumina-engine/pkg/apperrors"
	"github.com/luminabi/lumina-engine/pkg/crypto"
	"github.com/luminabi/lumina-engine/pkg/models"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	enc, err := crypto.NewCredentialEncryptor("test-key")
	require.NoError(t, err)
	return NewManager(enc, nil, zap.NewNop())
}

func TestManagerConnectorResolution(t *testing.T) {
	m := newTestManager(t)

	mysqlConn, err := m.Connector(models.EngineMySQL)
	require.NoError(t, err)
	mariaConn, err := m.Connector(models.EngineMariaDB)
	require.NoError(t, err)
	// MariaDB speaks the MySQL dialect and shares its connector.
	assert.Same(t, mysqlConn, mariaConn)

	pgConn, err := m.Connector(models.EnginePostgreSQL)
	require.NoError(t, err)
	assert.IsType(t, &PostgreSQLConnector{}, pgConn)

	_, err = m.Connector(models.EngineType("sqlite"))
	assert.ErrorIs(t, err, apperrors.ErrUnsupportedEngine)
}

func TestManagerConfigFields(t *testing.T) {
	m := newTestManager(t)

	fields, err := m.ConfigFields(models.EngineMySQL)
	require.NoError(t, err)
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"host", "port", "database", "username", "password", "ssl"}, names)

	pgFields, err := m.ConfigFields(models.EnginePostgreSQL)
	require.NoError(t, err)
	var sslmode *ConfigField
	for i := range pgFields {
		if pgFields[i].Name == "sslmode" {
			sslmode = &pgFields[i]
		}
	}
	require.NotNil(t, sslmode)
	assert.Equal(t, "select", sslmode.Kind)
	assert.Len(t, sslmode.Options, 4)

	_, err = m.ConfigFields(models.EngineType("oracle"))
	assert.ErrorIs(t, err, apperrors.ErrUnsupportedEngine)
}

func TestManagerDecodedConfig(t *testing.T) {
	m := newTestManager(t)

	t.Run("already decoded map passes through", func(t *testing.T) {
		ds := &models.DataSource{
			ConnectionConfig: map[string]any{"host": "localhost"},
		}
		config, err := m.decodedConfig(ds)
		require.NoError(t, err)
		assert.Equal(t, "localhost", config["host"])
	})

	t.Run("encrypted string is decrypted", func(t *testing.T) {
		enc, err := crypto.NewCredentialEncryptor("test-key")
		require.NoError(t, err)
		encrypted, err := enc.EncryptConfig(map[string]any{"host": "db.internal", "port": float64(5432)})
		require.NoError(t, err)

		ds := &models.DataSource{ConnectionConfig: encrypted}
		config, err := m.decodedConfig(ds)
		require.NoError(t, err)
		assert.Equal(t, "db.internal", config["host"])
	})

	t.Run("garbage ciphertext fails as connection failure", func(t *testing.T) {
		ds := &models.DataSource{ConnectionConfig: "not-encrypted"}
		_, err := m.decodedConfig(ds)
		assert.ErrorIs(t, err, apperrors.ErrConnectionFailure)
	})

	t.Run("missing config fails", func(t *testing.T) {
		ds := &models.DataSource{}
		_, err := m.decodedConfig(ds)
		assert.ErrorIs(t, err, apperrors.ErrConnectionFailure)
	})
}

func TestManagerTestConnectionUnsupportedEngine(t *testing.T) {
	m := newTestManager(t)

	ds := &models.DataSource{
		ID:     uuid.New(),
		Engine: models.EngineType("sqlite"),
	}
	result := m.TestConnection(context.Background(), ds)
	assert.False(t, result.Success)
	assert.Equal(t, models.StatusError, ds.Status)
	require.NotNil(t, ds.LastTestedAt)
	assert.WithinDuration(t, time.Now().UTC(), *ds.LastTestedAt, time.Minute)
}

func TestManagerTestConnectionBadConfig(t *testing.T) {
	m := newTestManager(t)

	ds := &models.DataSource{
		ID:               uuid.New(),
		Engine:           models.EngineMySQL,
		ConnectionConfig: "unreadable-ciphertext",
	}
	result := m.TestConnection(context.Background(), ds)
	assert.False(t, result.Success)
	assert.Equal(t, "connection configuration is invalid", result.Message)
	assert.Equal(t, models.StatusError, ds.Status)
}

type recordedStatus struct {
	id     string
	status models.DataSourceStatus
}

type fakeStatusRecorder struct {
	calls []recordedStatus
}

func (f *fakeStatusRecorder) RecordStatus(_ context.Context, id string, status models.DataSourceStatus, _ time.Time) error {
	f.calls = append(f.calls, recordedStatus{id: id, status: status})
	return nil
}

func TestManagerTestConnectionPersistsStatus(t *testing.T) {
	enc, err := crypto.NewCredentialEncryptor("test-key")
	require.NoError(t, err)
	recorder := &fakeStatusRecorder{}
	m := NewManager(enc, recorder, zap.NewNop())

	ds := &models.DataSource{
		ID:     uuid.New(),
		Engine: models.EngineType("unknown"),
	}
	m.TestConnection(context.Background(), ds)

	require.Len(t, recorder.calls, 1)
	assert.Equal(t, ds.ID.String(), recorder.calls[0].id)
	assert.Equal(t, models.StatusError, recorder.calls[0].status)
}
