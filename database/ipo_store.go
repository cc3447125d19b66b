package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fenilmodi00/ipo-tracker/models"
	"github.com/fenilmodi00/ipo-tracker/shared"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const ipoColumns = `id, analysis_title, name, summary_snippet, end_date,
	subscription_total, subscription_qib, subscription_nii, subscription_rii, gmp,
	COALESCE(recommendation, ''), COALESCE(apply_for_listing_gain, FALSE)`

// IPOStore reads and updates IPO records in a single SQL table
type IPOStore struct {
	db        *sql.DB
	dialect   Dialect
	table     string
	slowQuery time.Duration
	metrics   *shared.DatabaseMetrics
	logger    *logrus.Entry
}

// NewIPOStore creates a store over table. slowQuery of zero disables slow-query logging.
func NewIPOStore(db *sql.DB, dialect Dialect, table string, slowQuery time.Duration) (*IPOStore, error) {
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &IPOStore{
		db:        db,
		dialect:   dialect,
		table:     table,
		slowQuery: slowQuery,
		metrics:   shared.NewDatabaseMetrics(),
		logger:    logrus.WithField("component", "ipo_store"),
	}, nil
}

// Metrics returns query counters for the store
func (s *IPOStore) Metrics() shared.DatabaseMetricsSnapshot {
	return s.metrics.Snapshot()
}

// Dialect returns the SQL dialect the store speaks
func (s *IPOStore) Dialect() Dialect {
	return s.dialect
}

// FindPage returns the records matching filter in end_date descending order,
// ties broken by id so pages are stable.
func (s *IPOStore) FindPage(ctx context.Context, filter models.IPOFilter, offset, limit int) ([]models.IPO, error) {
	where, args := s.where(filter)
	query := fmt.Sprintf(`SELECT %s FROM %s%s ORDER BY end_date DESC, id ASC LIMIT ? OFFSET ?`,
		ipoColumns, s.table, where)
	args = append(args, limit, offset)

	start := time.Now()
	rows, err := s.db.QueryContext(ctx, s.dialect.Rebind(query), args...)
	if err != nil {
		s.observe("find_page", start, err)
		return nil, fmt.Errorf("failed to query IPOs: %w", err)
	}
	defer rows.Close()

	ipos := make([]models.IPO, 0, limit)
	for rows.Next() {
		ipo, err := scanIPO(rows)
		if err != nil {
			s.observe("find_page", start, err)
			return nil, fmt.Errorf("failed to scan IPO: %w", err)
		}
		ipos = append(ipos, ipo)
	}
	err = rows.Err()
	s.observe("find_page", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to iterate IPOs: %w", err)
	}
	return ipos, nil
}

// Count returns the number of records matching filter
func (s *IPOStore) Count(ctx context.Context, filter models.IPOFilter) (int64, error) {
	where, args := s.where(filter)
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s%s`, s.table, where)

	start := time.Now()
	var total int64
	err := s.db.QueryRowContext(ctx, s.dialect.Rebind(query), args...).Scan(&total)
	s.observe("count", start, err)
	if err != nil {
		return 0, fmt.Errorf("failed to count IPOs: %w", err)
	}
	return total, nil
}

// CountByTab returns how many records currently sit on each tab
func (s *IPOStore) CountByTab(ctx context.Context, today string) (map[models.Tab]int64, error) {
	counts := make(map[models.Tab]int64, 2)
	for _, tab := range []models.Tab{models.TabLive, models.TabHistory} {
		n, err := s.Count(ctx, models.IPOFilter{Tab: tab, Today: today})
		if err != nil {
			return nil, err
		}
		counts[tab] = n
	}
	return counts, nil
}

// GetByID returns one record, or sql.ErrNoRows when it does not exist
func (s *IPOStore) GetByID(ctx context.Context, id string) (*models.IPO, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = ?`, ipoColumns, s.table)

	start := time.Now()
	ipo, err := scanIPO(s.db.QueryRowContext(ctx, s.dialect.Rebind(query), id))
	s.observe("get_by_id", start, ignoreNoRows(err))
	if err != nil {
		return nil, err
	}
	return &ipo, nil
}

// UpdateFields writes the provided editable fields of one record and appends an
// audit row per changed field, all in one transaction. Matched is false when no
// record has the id. ModifiedCount is 0 when every provided value already matched.
func (s *IPOStore) UpdateFields(ctx context.Context, id string, update models.IPOUpdate) (models.UpdateResult, []models.IPOUpdateLog, error) {
	start := time.Now()
	result, logs, err := s.updateFields(ctx, id, update)
	s.observe("update_fields", start, err)
	return result, logs, err
}

func (s *IPOStore) updateFields(ctx context.Context, id string, update models.IPOUpdate) (models.UpdateResult, []models.IPOUpdateLog, error) {
	var result models.UpdateResult

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return result, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var (
		currentRecommendation string
		currentGain           sql.NullBool
	)
	selectQuery := fmt.Sprintf(`SELECT COALESCE(recommendation, ''), apply_for_listing_gain FROM %s WHERE id = ?%s`,
		s.table, s.dialect.ForUpdate())
	err = tx.QueryRowContext(ctx, s.dialect.Rebind(selectQuery), id).Scan(&currentRecommendation, &currentGain)
	if errors.Is(err, sql.ErrNoRows) {
		return result, nil, nil
	}
	if err != nil {
		return result, nil, fmt.Errorf("failed to read IPO %s: %w", id, err)
	}
	result.Matched = true

	now := time.Now().UTC()
	var (
		sets []string
		args []interface{}
		logs []models.IPOUpdateLog
	)

	if update.Recommendation != nil && string(*update.Recommendation) != currentRecommendation {
		sets = append(sets, "recommendation = ?")
		args = append(args, string(*update.Recommendation))
		logs = append(logs, newUpdateLog(id, "recommendation", currentRecommendation, string(*update.Recommendation), update.Source, now))
	}

	// A stored NULL reads as false but is still rewritten so the column becomes explicit.
	if update.ApplyForListingGain != nil && (!currentGain.Valid || currentGain.Bool != *update.ApplyForListingGain) {
		sets = append(sets, "apply_for_listing_gain = ?")
		args = append(args, *update.ApplyForListingGain)
		logs = append(logs, newUpdateLog(id, "apply_for_listing_gain",
			formatNullBool(currentGain), strconv.FormatBool(*update.ApplyForListingGain), update.Source, now))
	}

	if len(sets) == 0 {
		return result, nil, tx.Commit()
	}

	updateQuery := fmt.Sprintf(`UPDATE %s SET %s, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		s.table, strings.Join(sets, ", "))
	args = append(args, id)
	if _, err := tx.ExecContext(ctx, s.dialect.Rebind(updateQuery), args...); err != nil {
		return models.UpdateResult{}, nil, fmt.Errorf("failed to update IPO %s: %w", id, err)
	}

	logQuery := s.dialect.Rebind(`INSERT INTO ipo_update_log (id, ipo_id, field_name, old_value, new_value, source, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	for _, entry := range logs {
		if _, err := tx.ExecContext(ctx, logQuery,
			entry.ID, entry.IPOID, entry.FieldName, entry.OldValue, entry.NewValue, entry.Source, entry.Timestamp); err != nil {
			return models.UpdateResult{}, nil, fmt.Errorf("failed to write update log: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return models.UpdateResult{}, nil, fmt.Errorf("failed to commit update: %w", err)
	}

	result.ModifiedCount = 1
	return result, logs, nil
}

// ListUpdateLogs returns the audit trail of one record, newest first
func (s *IPOStore) ListUpdateLogs(ctx context.Context, ipoID string, limit int) ([]models.IPOUpdateLog, error) {
	query := s.dialect.Rebind(`SELECT id, ipo_id, field_name, old_value, new_value, source, timestamp
		FROM ipo_update_log WHERE ipo_id = ? ORDER BY timestamp DESC, id ASC LIMIT ?`)

	start := time.Now()
	rows, err := s.db.QueryContext(ctx, query, ipoID, limit)
	if err != nil {
		s.observe("list_update_logs", start, err)
		return nil, fmt.Errorf("failed to query update log: %w", err)
	}
	defer rows.Close()

	var logs []models.IPOUpdateLog
	for rows.Next() {
		var entry models.IPOUpdateLog
		if err := rows.Scan(&entry.ID, &entry.IPOID, &entry.FieldName, &entry.OldValue,
			&entry.NewValue, &entry.Source, &entry.Timestamp); err != nil {
			s.observe("list_update_logs", start, err)
			return nil, fmt.Errorf("failed to scan update log: %w", err)
		}
		logs = append(logs, entry)
	}
	err = rows.Err()
	s.observe("list_update_logs", start, err)
	return logs, err
}

// Insert adds a record. It is used to seed local databases; production rows come
// from the ingestion process.
func (s *IPOStore) Insert(ctx context.Context, ipo *models.IPO) error {
	if ipo.ID == "" {
		ipo.ID = uuid.New().String()
	}
	query := fmt.Sprintf(`INSERT INTO %s (id, analysis_title, name, summary_snippet, end_date,
		subscription_total, subscription_qib, subscription_nii, subscription_rii, gmp,
		recommendation, apply_for_listing_gain)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, s.table)

	start := time.Now()
	_, err := s.db.ExecContext(ctx, s.dialect.Rebind(query),
		ipo.ID, ipo.AnalysisTitle, ipo.Name, ipo.Summary, ipo.ListingWindow.EndDate,
		ipo.SubscriptionDetails.Total, ipo.SubscriptionDetails.QIB, ipo.SubscriptionDetails.NII,
		ipo.SubscriptionDetails.RII, ipo.SubscriptionDetails.GMP,
		string(ipo.Recommendation), ipo.ApplyForListingGain)
	s.observe("insert", start, err)
	if err != nil {
		return fmt.Errorf("failed to insert IPO: %w", err)
	}
	return nil
}

// where builds the shared predicate of FindPage and Count
func (s *IPOStore) where(filter models.IPOFilter) (string, []interface{}) {
	var (
		conds []string
		args  []interface{}
	)

	if filter.Tab == models.TabHistory {
		conds = append(conds, "end_date < ?")
	} else {
		conds = append(conds, "end_date >= ?")
	}
	args = append(args, filter.Today)

	if filter.Search != "" {
		pattern := "%" + escapeLike(strings.ToLower(filter.Search)) + "%"
		conds = append(conds, `(LOWER(analysis_title) LIKE ? ESCAPE '\'`+
			` OR LOWER(name) LIKE ? ESCAPE '\'`+
			` OR LOWER(summary_snippet) LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern, pattern)
	}

	return " WHERE " + strings.Join(conds, " AND "), args
}

func (s *IPOStore) observe(operation string, start time.Time, err error) {
	elapsed := time.Since(start)
	slow := s.slowQuery > 0 && elapsed >= s.slowQuery
	s.metrics.RecordQuery(err == nil, elapsed, slow)

	if slow {
		s.logger.WithFields(logrus.Fields{
			"operation": operation,
			"duration":  elapsed,
			"threshold": s.slowQuery,
		}).Warn("Slow query detected")
	}
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"operation": operation,
			"error":     err,
		}).Debug("Query failed")
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanIPO(row rowScanner) (models.IPO, error) {
	var (
		ipo            models.IPO
		recommendation string
	)
	err := row.Scan(
		&ipo.ID,
		&ipo.AnalysisTitle,
		&ipo.Name,
		&ipo.Summary,
		&ipo.ListingWindow.EndDate,
		&ipo.SubscriptionDetails.Total,
		&ipo.SubscriptionDetails.QIB,
		&ipo.SubscriptionDetails.NII,
		&ipo.SubscriptionDetails.RII,
		&ipo.SubscriptionDetails.GMP,
		&recommendation,
		&ipo.ApplyForListingGain,
	)
	ipo.Recommendation = models.Recommendation(recommendation)
	return ipo, err
}

func newUpdateLog(ipoID, field, oldValue, newValue, source string, at time.Time) models.IPOUpdateLog {
	return models.IPOUpdateLog{
		ID:        uuid.New().String(),
		IPOID:     ipoID,
		FieldName: field,
		OldValue:  oldValue,
		NewValue:  newValue,
		Source:    source,
		Timestamp: at,
	}
}

func formatNullBool(v sql.NullBool) string {
	if !v.Valid {
		return ""
	}
	return strconv.FormatBool(v.Bool)
}

// escapeLike makes the search term a literal LIKE pattern
func escapeLike(term string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(term)
}

func ignoreNoRows(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	return err
}

// IndexStat describes one index on the IPO or audit table
type IndexStat struct {
	Table         string `json:"table"`
	Index         string `json:"index"`
	Scans         int64  `json:"scans"`
	TuplesRead    int64  `json:"tuples_read"`
	TuplesFetched int64  `json:"tuples_fetched"`
}

// IndexUsage reports index usage counters. SQLite keeps no counters, so only
// the index names are returned there.
func (s *IPOStore) IndexUsage(ctx context.Context) ([]IndexStat, error) {
	var query string
	if s.dialect == Postgres {
		query = `
			SELECT relname, indexrelname, idx_scan, idx_tup_read, idx_tup_fetch
			FROM pg_stat_user_indexes
			WHERE relname IN ($1, 'ipo_update_log')
			ORDER BY relname, idx_scan DESC`
	} else {
		query = `
			SELECT tbl_name, name, 0, 0, 0
			FROM sqlite_master
			WHERE type = 'index' AND tbl_name IN (?, 'ipo_update_log')
			ORDER BY tbl_name, name`
	}

	rows, err := s.db.QueryContext(ctx, query, s.table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []IndexStat
	for rows.Next() {
		var stat IndexStat
		if err := rows.Scan(&stat.Table, &stat.Index, &stat.Scans, &stat.TuplesRead, &stat.TuplesFetched); err != nil {
			return nil, err
		}
		stats = append(stats, stat)
	}
	return stats, rows.Err()
}
