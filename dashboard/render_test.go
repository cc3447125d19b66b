package dashboard

import (
	"bytes"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/fenilmodi00/ipo-tracker/models"
)

func renderDoc(t *testing.T, vm ViewModel) *goquery.Document {
	t.Helper()

	renderer, err := NewRenderer()
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	opts := RenderOptions{BasePath: "/", ActionPrefix: "/dashboard/ipos/", Limit: 10, SearchDebounce: 300 * time.Millisecond}
	if err := renderer.Render(&buf, vm, opts); err != nil {
		t.Fatal(err)
	}
	doc, err := goquery.NewDocumentFromReader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestRender_Table(t *testing.T) {
	page := samplePage(2, 1)
	page.Data[1].SubscriptionDetails.GMP = ""
	doc := renderDoc(t, BuildView(InitialState(), page, false, nil))

	rows := doc.Find("#ipo-table tbody tr")
	if rows.Length() != 2 {
		t.Fatalf("rows = %d, want 2", rows.Length())
	}
	first := rows.First()
	if !first.Find(".badge").HasClass("badge-default") {
		t.Error("premium gmp should use the default badge")
	}
	if got := rows.Eq(1).Find(".badge").Text(); got != "N/A" {
		t.Errorf("missing gmp text = %q", got)
	}
	if !strings.Contains(first.Find(".subscription").Text(), "Total: 12.5x") {
		t.Errorf("subscription = %q", first.Find(".subscription").Text())
	}
	if selected := first.Find("select option[selected]").Text(); selected != "Apply" {
		t.Errorf("selected recommendation = %q", selected)
	}
	if _, disabled := first.Find("select").Attr("disabled"); disabled {
		t.Error("live select should be enabled")
	}
	if !doc.Find("#tab-live").HasClass("active") {
		t.Error("live tab should be active")
	}
	if got := doc.Find("#page-label").Text(); got != "Page 1 of 1" {
		t.Errorf("page label = %q", got)
	}
	if !doc.Find("#prev").HasClass("disabled") || !doc.Find("#next").HasClass("disabled") {
		t.Error("single page should disable both controls")
	}
}

func TestRender_HistoryControlsDisabled(t *testing.T) {
	state := InitialState().WithTab(models.TabHistory)
	doc := renderDoc(t, BuildView(state, samplePage(1, 1), false, nil))

	if _, disabled := doc.Find("#ipo-table select").Attr("disabled"); !disabled {
		t.Error("history select should be disabled")
	}
	if _, disabled := doc.Find("#ipo-table input[type=checkbox]").Attr("disabled"); !disabled {
		t.Error("history checkbox should be disabled")
	}
	if !doc.Find("#tab-history").HasClass("active") {
		t.Error("history tab should be active")
	}
}

func TestRender_ActionCarriesState(t *testing.T) {
	state := InitialState().WithSearch("a&b").WithPage(2, 3)
	doc := renderDoc(t, BuildView(state, samplePage(1, 3), false, nil))

	action, _ := doc.Find("#ipo-table form").First().Attr("action")
	parsed, err := url.Parse(action)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(parsed.Path, "/dashboard/ipos/") {
		t.Errorf("action path = %q", parsed.Path)
	}
	query := parsed.Query()
	if query.Get("search") != "a&b" || query.Get("page") != "2" {
		t.Errorf("action query = %v", query)
	}

	next, _ := doc.Find("#next").Attr("href")
	nextURL, _ := url.Parse(next)
	if nextURL.Query().Get("page") != "3" {
		t.Errorf("next href = %q", next)
	}
}

func TestRender_NonTableStates(t *testing.T) {
	cases := []struct {
		vm   ViewModel
		want string
	}{
		{BuildView(InitialState(), nil, true, nil), LoadingText},
		{BuildView(InitialState(), nil, false, errors.New("down")), ErrorText},
		{BuildView(InitialState(), samplePage(0, 0), false, nil), EmptyText},
	}
	for _, tc := range cases {
		doc := renderDoc(t, tc.vm)
		if doc.Find("#ipo-table").Length() != 0 {
			t.Errorf("%s: table rendered", tc.vm.RenderState)
		}
		if got := strings.TrimSpace(doc.Find(".state").Text()); got != tc.want {
			t.Errorf("%s: message = %q, want %q", tc.vm.RenderState, got, tc.want)
		}
	}
}

func TestRender_Notice(t *testing.T) {
	vm := BuildView(InitialState(), samplePage(1, 1), false, nil)
	vm.Notice = "Invalid recommendation"
	doc := renderDoc(t, vm)

	if got := doc.Find(".notice").Text(); got != "Invalid recommendation" {
		t.Errorf("notice = %q", got)
	}
}
