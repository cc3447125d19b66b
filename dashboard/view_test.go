package dashboard

import (
	"errors"
	"net/url"
	"testing"

	"github.com/fenilmodi00/ipo-tracker/models"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func samplePage(n, totalPages int) *models.IPOPage {
	page := &models.IPOPage{Pagination: models.Pagination{Page: 1, Limit: DefaultLimit, TotalDocs: int64(n), TotalPages: totalPages}}
	for i := 0; i < n; i++ {
		page.Data = append(page.Data, models.IPO{
			ID:            "0b8a6f3c-2f7e-4c55-9d53-3c1c3f1a2b0" + string(rune('0'+i%10)),
			AnalysisTitle: "Analysis",
			Name:          "Acme Ltd",
			ListingWindow: models.ListingWindow{EndDate: "2026-10-20"},
			SubscriptionDetails: models.SubscriptionDetails{
				Total: "12.5", QIB: "30.1", NII: "8.2", RII: "4.4", GMP: "45 (12%)",
			},
			Recommendation: models.RecommendationApply,
		})
	}
	return page
}

func TestBuildView_RenderStatesAreExclusive(t *testing.T) {
	state := InitialState()
	boom := errors.New("boom")

	cases := []struct {
		name    string
		page    *models.IPOPage
		loading bool
		err     error
		want    RenderState
		message string
	}{
		{"loading beats error", nil, true, boom, RenderLoading, LoadingText},
		{"loading beats data", samplePage(2, 1), true, nil, RenderLoading, LoadingText},
		{"error beats data", samplePage(2, 1), false, boom, RenderError, ErrorText},
		{"no page", nil, false, nil, RenderEmpty, EmptyText},
		{"empty page", samplePage(0, 0), false, nil, RenderEmpty, EmptyText},
		{"rows", samplePage(3, 1), false, nil, RenderTable, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			vm := BuildView(state, tc.page, tc.loading, tc.err)
			if vm.RenderState != tc.want {
				t.Errorf("render state = %s, want %s", vm.RenderState, tc.want)
			}
			if vm.Message != tc.message {
				t.Errorf("message = %q, want %q", vm.Message, tc.message)
			}
			if tc.want != RenderTable && len(vm.Rows) != 0 {
				t.Errorf("rows present in %s state", vm.RenderState)
			}
		})
	}
}

func TestBuildView_RowFormatting(t *testing.T) {
	page := samplePage(1, 1)
	page.Data = append(page.Data, models.IPO{ID: "plain", SubscriptionDetails: models.SubscriptionDetails{GMP: "12"}})
	page.Data = append(page.Data, models.IPO{ID: "missing"})

	vm := BuildView(InitialState(), page, false, nil)
	if len(vm.Rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(vm.Rows))
	}

	premium := vm.Rows[0]
	if premium.GMPVariant != BadgePremium || premium.GMP != "45 (12%)" {
		t.Errorf("premium row gmp = %q/%s", premium.GMP, premium.GMPVariant)
	}
	if premium.Subscription[0].Value != "12.5x" || premium.Subscription[3].Label != "RII" {
		t.Errorf("subscription = %+v", premium.Subscription)
	}
	if vm.Rows[1].GMPVariant != BadgePlain {
		t.Errorf("plain gmp variant = %s", vm.Rows[1].GMPVariant)
	}
	if vm.Rows[2].GMP != "N/A" || vm.Rows[2].GMPVariant != BadgePlain {
		t.Errorf("missing gmp = %q/%s", vm.Rows[2].GMP, vm.Rows[2].GMPVariant)
	}
	if premium.Disabled {
		t.Error("live rows must be editable")
	}
}

func TestBuildView_HistoryRowsDisabled(t *testing.T) {
	state := InitialState().WithTab(models.TabHistory)
	vm := BuildView(state, samplePage(2, 1), false, nil)
	for _, row := range vm.Rows {
		if !row.Disabled {
			t.Errorf("row %s is editable on history", row.ID)
		}
	}
}

func TestBuildView_Pagination(t *testing.T) {
	vm := BuildView(InitialState(), samplePage(0, 0), false, nil)
	if vm.Pagination.Label != "Page 1 of 1" || vm.Pagination.HasPrev || vm.Pagination.HasNext {
		t.Errorf("empty pagination = %+v", vm.Pagination)
	}

	state := InitialState().WithPage(2, 3)
	vm = BuildView(state, samplePage(10, 3), false, nil)
	if vm.Pagination.Label != "Page 2 of 3" || !vm.Pagination.HasPrev || !vm.Pagination.HasNext {
		t.Errorf("middle pagination = %+v", vm.Pagination)
	}
}

func TestState_Transitions(t *testing.T) {
	state := InitialState().WithPage(4, 5)
	if state.Page != 4 {
		t.Fatalf("page = %d", state.Page)
	}

	if got := state.WithTab(models.TabHistory); got.Page != 1 || got.Tab != models.TabHistory {
		t.Errorf("WithTab = %+v", got)
	}
	if got := state.WithSearch("  acme  "); got.Page != 1 || got.Search != "acme" {
		t.Errorf("WithSearch = %+v", got)
	}
	if got := state.WithPage(9, 5); got.Page != 5 {
		t.Errorf("WithPage above range = %d", got.Page)
	}
	if got := state.WithPage(0, 5); got.Page != 1 {
		t.Errorf("WithPage below range = %d", got.Page)
	}
	if got := state.WithPage(3, 0); got.Page != 1 {
		t.Errorf("WithPage with no pages = %d", got.Page)
	}
}

func TestBuildQuery_EscapesSearch(t *testing.T) {
	state := InitialState().WithSearch("A&B #1 100%")
	encoded := BuildQuery(state, 10).Encode()

	values, err := url.ParseQuery(encoded)
	if err != nil {
		t.Fatal(err)
	}
	if values.Get("search") != "A&B #1 100%" {
		t.Errorf("search round trip = %q", values.Get("search"))
	}
	if StateFromQuery(values) != state {
		t.Errorf("StateFromQuery = %+v, want %+v", StateFromQuery(values), state)
	}

	if _, ok := BuildQuery(InitialState(), 10)["search"]; ok {
		t.Error("empty search should be omitted")
	}
}

func TestStateFromQuery_Defaults(t *testing.T) {
	state := StateFromQuery(url.Values{"tab": {"archive"}, "page": {"-3"}})
	if state != InitialState() {
		t.Errorf("state = %+v, want initial", state)
	}
}

func TestWithPage_StaysInRange(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("page is within [1, max(1,totalPages)]", prop.ForAll(
		func(page, totalPages int) bool {
			got := InitialState().WithPage(page, totalPages).Page
			upper := totalPages
			if upper < 1 {
				upper = 1
			}
			return got >= 1 && got <= upper
		},
		gen.IntRange(-50, 50),
		gen.IntRange(-5, 20),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
