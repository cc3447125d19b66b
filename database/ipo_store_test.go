package database_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/fenilmodi00/ipo-tracker/database"
	"github.com/fenilmodi00/ipo-tracker/database/dbtest"
	"github.com/fenilmodi00/ipo-tracker/models"
	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

const today = "2026-10-16"

func liveFilter(search string) models.IPOFilter {
	return models.IPOFilter{Tab: models.TabLive, Today: today, Search: search}
}

func TestFindPage_OrdersByEndDateDescending(t *testing.T) {
	store, _ := dbtest.NewSQLiteStore(t)
	dbtest.Seed(t, store,
		dbtest.NewIPO("Alpha", "2026-10-20"),
		dbtest.NewIPO("Beta", "2026-12-01"),
		dbtest.NewIPO("Gamma", "2026-10-16"),
		dbtest.NewIPO("Old", "2026-10-15"),
	)

	ipos, err := store.FindPage(context.Background(), liveFilter(""), 0, 10)
	if err != nil {
		t.Fatalf("FindPage: %v", err)
	}

	var names []string
	for _, ipo := range ipos {
		names = append(names, ipo.Name)
	}
	want := []string{"Beta", "Alpha", "Gamma"}
	if fmt.Sprint(names) != fmt.Sprint(want) {
		t.Errorf("names = %v, want %v", names, want)
	}

	history, err := store.FindPage(context.Background(), models.IPOFilter{Tab: models.TabHistory, Today: today}, 0, 10)
	if err != nil {
		t.Fatalf("FindPage history: %v", err)
	}
	if len(history) != 1 || history[0].Name != "Old" {
		t.Errorf("history = %+v", history)
	}
}

func TestFindPage_SearchIsCaseInsensitiveAcrossFields(t *testing.T) {
	store, _ := dbtest.NewSQLiteStore(t)
	acme := dbtest.NewIPO("Acme Ltd", "2026-11-01")
	summary := dbtest.NewIPO("Other", "2026-11-02")
	summary.Summary = "Backed by ACME holdings"
	title := dbtest.NewIPO("Third", "2026-11-03")
	title.AnalysisTitle = "acme spin-off"
	dbtest.Seed(t, store, acme, summary, title, dbtest.NewIPO("Unrelated", "2026-11-04"))

	ipos, err := store.FindPage(context.Background(), liveFilter("AcMe"), 0, 10)
	if err != nil {
		t.Fatalf("FindPage: %v", err)
	}
	if len(ipos) != 3 {
		t.Fatalf("matched %d records, want 3", len(ipos))
	}

	total, err := store.Count(context.Background(), liveFilter("AcMe"))
	if err != nil || total != 3 {
		t.Errorf("Count = %d, %v", total, err)
	}
}

func TestFindPage_SearchStaysWithinTab(t *testing.T) {
	store, _ := dbtest.NewSQLiteStore(t)
	dbtest.Seed(t, store,
		dbtest.NewIPO("Acme Ltd", "2026-11-01"),
		dbtest.NewIPO("Closedco", "2026-01-01"),
	)

	ipos, err := store.FindPage(context.Background(), liveFilter("closedco"), 0, 10)
	if err != nil {
		t.Fatalf("FindPage: %v", err)
	}
	total, err := store.Count(context.Background(), liveFilter("closedco"))
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if len(ipos) != 0 || total != 0 {
		t.Errorf("history-only match under live: rows=%d total=%d", len(ipos), total)
	}

	total, err = store.Count(context.Background(), models.IPOFilter{Tab: models.TabHistory, Today: today, Search: "closedco"})
	if err != nil || total != 1 {
		t.Errorf("history Count = %d, %v", total, err)
	}
}

func TestFindPage_SearchTreatsWildcardsLiterally(t *testing.T) {
	store, _ := dbtest.NewSQLiteStore(t)
	dbtest.Seed(t, store,
		dbtest.NewIPO("Flat 50% Infra", "2026-11-01"),
		dbtest.NewIPO("Flat 500 Infra", "2026-11-01"),
		dbtest.NewIPO("snake_case", "2026-11-01"),
		dbtest.NewIPO("snakeXcase", "2026-11-01"),
	)

	for search, want := range map[string]int{"50%": 1, "snake_": 1, "%": 1, "_": 1} {
		total, err := store.Count(context.Background(), liveFilter(search))
		if err != nil {
			t.Fatalf("Count(%q): %v", search, err)
		}
		if total != int64(want) {
			t.Errorf("Count(%q) = %d, want %d", search, total, want)
		}
	}
}

func TestFindPage_TabFollowsEndDate(t *testing.T) {
	store, db := dbtest.NewSQLiteStore(t)
	ipo := dbtest.NewIPO("Mover", "2099-01-01")
	dbtest.Seed(t, store, ipo)

	counts, err := store.CountByTab(context.Background(), today)
	if err != nil {
		t.Fatal(err)
	}
	if counts[models.TabLive] != 1 || counts[models.TabHistory] != 0 {
		t.Fatalf("counts before = %v", counts)
	}

	if _, err := db.Exec("UPDATE "+dbtest.Table+" SET end_date = ? WHERE id = ?", "2000-01-01", ipo.ID); err != nil {
		t.Fatal(err)
	}

	counts, err = store.CountByTab(context.Background(), today)
	if err != nil {
		t.Fatal(err)
	}
	if counts[models.TabLive] != 0 || counts[models.TabHistory] != 1 {
		t.Errorf("counts after = %v", counts)
	}
}

func TestUpdateFields_PartialAndIdempotent(t *testing.T) {
	store, _ := dbtest.NewSQLiteStore(t)
	ipo := dbtest.NewIPO("Target", "2026-11-01")
	ipo.ApplyForListingGain = true
	dbtest.Seed(t, store, ipo)
	ctx := context.Background()

	rec := models.RecommendationApply
	update := models.IPOUpdate{Recommendation: &rec, Source: "test"}

	result, logs, err := store.UpdateFields(ctx, ipo.ID, update)
	if err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	if !result.Matched || result.ModifiedCount != 1 || len(logs) != 1 {
		t.Fatalf("first update = %+v, %d logs", result, len(logs))
	}

	got, err := store.GetByID(ctx, ipo.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Recommendation != models.RecommendationApply {
		t.Errorf("recommendation = %q", got.Recommendation)
	}
	if !got.ApplyForListingGain {
		t.Error("listing gain flag changed by a recommendation-only update")
	}
	if got.Name != "Target" || got.SubscriptionDetails.GMP != "45 (12%)" {
		t.Errorf("display fields changed: %+v", got)
	}

	result, logs, err = store.UpdateFields(ctx, ipo.ID, update)
	if err != nil {
		t.Fatalf("second UpdateFields: %v", err)
	}
	if !result.Matched || result.ModifiedCount != 0 || len(logs) != 0 {
		t.Errorf("repeat update = %+v, %d logs", result, len(logs))
	}

	trail, err := store.ListUpdateLogs(ctx, ipo.ID, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(trail) != 1 || trail[0].FieldName != "recommendation" || trail[0].NewValue != "Apply" || trail[0].Source != "test" {
		t.Errorf("audit trail = %+v", trail)
	}
}

func TestUpdateFields_LegacyNullListingGain(t *testing.T) {
	store, db := dbtest.NewSQLiteStore(t)
	id := uuid.New().String()
	if _, err := db.Exec("INSERT INTO "+dbtest.Table+" (id, name, end_date, recommendation, apply_for_listing_gain) VALUES (?, ?, ?, NULL, NULL)",
		id, "Legacy", "2026-11-01"); err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	got, err := store.GetByID(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if got.ApplyForListingGain || got.Recommendation != models.RecommendationUnset {
		t.Errorf("legacy record read as %+v", got)
	}

	f := false
	result, logs, err := store.UpdateFields(ctx, id, models.IPOUpdate{ApplyForListingGain: &f})
	if err != nil {
		t.Fatal(err)
	}
	if result.ModifiedCount != 1 || len(logs) != 1 || logs[0].OldValue != "" || logs[0].NewValue != "false" {
		t.Errorf("null to false = %+v, logs %+v", result, logs)
	}

	var stored sql.NullBool
	if err := db.QueryRow("SELECT apply_for_listing_gain FROM "+dbtest.Table+" WHERE id = ?", id).Scan(&stored); err != nil {
		t.Fatal(err)
	}
	if !stored.Valid || stored.Bool {
		t.Errorf("stored flag = %+v", stored)
	}
}

func TestUpdateFields_UnknownID(t *testing.T) {
	store, _ := dbtest.NewSQLiteStore(t)
	tr := true

	result, logs, err := store.UpdateFields(context.Background(), uuid.New().String(), models.IPOUpdate{ApplyForListingGain: &tr})
	if err != nil {
		t.Fatal(err)
	}
	if result.Matched || result.ModifiedCount != 0 || logs != nil {
		t.Errorf("unknown id = %+v", result)
	}

	if _, err := store.GetByID(context.Background(), uuid.New().String()); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("GetByID error = %v", err)
	}
}

func TestVerifySchema(t *testing.T) {
	_, db := dbtest.NewSQLiteStore(t)

	missing, err := database.VerifySchema(context.Background(), db, database.SQLite, dbtest.Table)
	if err != nil {
		t.Fatal(err)
	}
	if len(missing) != 0 {
		t.Errorf("missing columns after migrate: %v", missing)
	}

	if _, err := database.VerifySchema(context.Background(), db, database.SQLite, "bad;name"); err == nil {
		t.Error("expected an error for an unsafe table name")
	}
}

func TestStoreMetricsCountQueries(t *testing.T) {
	store, _ := dbtest.NewSQLiteStore(t)
	if _, err := store.Count(context.Background(), liveFilter("")); err != nil {
		t.Fatal(err)
	}
	if snap := store.Metrics(); snap.TotalQueries != 1 || snap.SuccessfulQueries != 1 {
		t.Errorf("metrics = %+v", snap)
	}
}

func TestPaginationProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 25
	properties := gopter.NewProperties(parameters)

	properties.Property("pages partition the filtered records", prop.ForAll(
		func(records, limit int) bool {
			store, _ := dbtest.NewSQLiteStore(t)
			for i := 0; i < records; i++ {
				// Repeated end dates exercise the id tiebreak
				dbtest.Seed(t, store, dbtest.NewIPO(fmt.Sprintf("IPO %02d", i), fmt.Sprintf("2027-01-%02d", i%5+1)))
			}

			ctx := context.Background()
			total, err := store.Count(ctx, liveFilter(""))
			if err != nil || total != int64(records) {
				return false
			}

			pagination := models.NewPagination(1, limit, total)
			seen := make(map[string]bool)
			lastEnd := "9999-12-31"
			for page := 1; page <= pagination.TotalPages; page++ {
				ipos, err := store.FindPage(ctx, liveFilter(""), (page-1)*limit, limit)
				if err != nil || len(ipos) > limit {
					return false
				}
				for _, ipo := range ipos {
					if seen[ipo.ID] || ipo.ListingWindow.EndDate > lastEnd {
						return false
					}
					seen[ipo.ID] = true
					lastEnd = ipo.ListingWindow.EndDate
				}
			}
			return len(seen) == records
		},
		gen.IntRange(0, 25),
		gen.IntRange(1, 7),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestPostgresStore(t *testing.T) {
	store, _ := dbtest.NewPostgresStore(t)
	ctx := context.Background()

	ipo := dbtest.NewIPO("Postgres Co", "2099-01-01")
	dbtest.Seed(t, store, ipo, dbtest.NewIPO("Past Co", "2000-01-01"))

	ipos, err := store.FindPage(ctx, liveFilter("postgres"), 0, 10)
	if err != nil {
		t.Fatalf("FindPage: %v", err)
	}
	if len(ipos) != 1 || ipos[0].ID != ipo.ID {
		t.Fatalf("FindPage = %+v", ipos)
	}

	tr := true
	result, _, err := store.UpdateFields(ctx, ipo.ID, models.IPOUpdate{ApplyForListingGain: &tr, Source: "test"})
	if err != nil || result.ModifiedCount != 1 {
		t.Fatalf("UpdateFields = %+v, %v", result, err)
	}

	trail, err := store.ListUpdateLogs(ctx, ipo.ID, 10)
	if err != nil || len(trail) != 1 {
		t.Errorf("audit trail = %+v, %v", trail, err)
	}
}
