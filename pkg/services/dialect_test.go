package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/luminabi/lumina-engine/pkg/models"
)

func TestDialectHelpers(t *testing.T) {
	t.Run("mysql family", func(t *testing.T) {
		assert.Equal(t, "DATE_SUB(CURRENT_DATE, INTERVAL 7 DAY)", dateSubDays(models.EngineMySQL, 7))
		assert.Equal(t, "DATE_SUB(CURRENT_DATE, INTERVAL 3 MONTH)", dateSubMonths(models.EngineMariaDB, 3))
		assert.Equal(t, "DATE_FORMAT(created_at, '%Y-%m')", monthBucket(models.EngineMySQL, "created_at"))
	})

	t.Run("postgresql", func(t *testing.T) {
		assert.Equal(t, "CURRENT_DATE - INTERVAL '7 days'", dateSubDays(models.EnginePostgreSQL, 7))
		assert.Equal(t, "CURRENT_DATE - INTERVAL '3 months'", dateSubMonths(models.EnginePostgreSQL, 3))
		assert.Equal(t, "TO_CHAR(created_at, 'YYYY-MM')", monthBucket(models.EnginePostgreSQL, "created_at"))
	})
}
