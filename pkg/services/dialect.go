package services

import (
	"fmt"

	"github.com/luminabi/lumina-engine/pkg/models"
)

// Dialect helpers for the small set of date expressions generated
// outside the model: the fallback query and the insight scans.

func dateSubDays(engine models.EngineType, days int) string {
	if engine.IsMySQLFamily() {
		return fmt.Sprintf("DATE_SUB(CURRENT_DATE, INTERVAL %d DAY)", days)
	}
	return fmt.Sprintf("CURRENT_DATE - INTERVAL '%d days'", days)
}

func dateSubMonths(engine models.EngineType, months int) string {
	if engine.IsMySQLFamily() {
		return fmt.Sprintf("DATE_SUB(CURRENT_DATE, INTERVAL %d MONTH)", months)
	}
	return fmt.Sprintf("CURRENT_DATE - INTERVAL '%d months'", months)
}

// monthBucket renders a YYYY-MM grouping expression over a date column.
func monthBucket(engine models.EngineType, column string) string {
	if engine.IsMySQLFamily() {
		return fmt.Sprintf("DATE_FORMAT(%s, '%%Y-%%m')", column)
	}
	return fmt.Sprintf("TO_CHAR(%s, 'YYYY-MM')", column)
}
