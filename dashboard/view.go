package dashboard

import (
	"fmt"
	"strings"

	"github.com/fenilmodi00/ipo-tracker/models"
)

// RenderState selects which one of the mutually exclusive bodies is shown
type RenderState string

const (
	RenderLoading RenderState = "loading"
	RenderError   RenderState = "error"
	RenderEmpty   RenderState = "empty"
	RenderTable   RenderState = "table"
)

// Body texts of the non-table states
const (
	LoadingText = "Loading IPOs..."
	ErrorText   = "Failed to load data."
	EmptyText   = "No IPOs found."
)

type BadgeVariant string

const (
	BadgePremium BadgeVariant = "default"
	BadgePlain   BadgeVariant = "secondary"
)

// Row is one table line, already formatted for display
type Row struct {
	ID                  string
	Name                string
	AnalysisTitle       string
	EndDate             string
	GMP                 string
	GMPVariant          BadgeVariant
	Subscription        []SubscriptionLine
	Recommendation      models.Recommendation
	ApplyForListingGain bool
	Disabled            bool
}

type SubscriptionLine struct {
	Label string
	Value string
}

// PaginationView drives the previous/next controls
type PaginationView struct {
	Page       int
	TotalPages int
	HasPrev    bool
	HasNext    bool
	Label      string
}

// ViewModel is the complete, render-ready dashboard
type ViewModel struct {
	State       State
	RenderState RenderState
	Message     string
	Rows        []Row
	Pagination  PaginationView
	Options     []models.Recommendation
	Notice      string
}

// BuildView derives the view model. Loading wins over an error, an error wins over data.
func BuildView(state State, page *models.IPOPage, loading bool, err error) ViewModel {
	vm := ViewModel{
		State:   state,
		Options: models.Recommendations,
	}

	totalPages := 0
	if page != nil {
		totalPages = page.Pagination.TotalPages
	}
	vm.Pagination = buildPagination(state.Page, totalPages)

	switch {
	case loading:
		vm.RenderState = RenderLoading
		vm.Message = LoadingText
	case err != nil:
		vm.RenderState = RenderError
		vm.Message = ErrorText
	case page == nil || len(page.Data) == 0:
		vm.RenderState = RenderEmpty
		vm.Message = EmptyText
	default:
		vm.RenderState = RenderTable
		vm.Rows = make([]Row, 0, len(page.Data))
		for i := range page.Data {
			vm.Rows = append(vm.Rows, buildRow(&page.Data[i], !state.Editable()))
		}
	}
	return vm
}

func buildRow(ipo *models.IPO, disabled bool) Row {
	details := ipo.SubscriptionDetails
	return Row{
		ID:            ipo.ID,
		Name:          ipo.Name,
		AnalysisTitle: ipo.AnalysisTitle,
		EndDate:       ipo.ListingWindow.EndDate,
		GMP:           GMPText(details.GMP),
		GMPVariant:    GMPVariant(details.GMP),
		Subscription: []SubscriptionLine{
			{Label: "Total", Value: Multiplier(details.Total)},
			{Label: "QIB", Value: Multiplier(details.QIB)},
			{Label: "NII", Value: Multiplier(details.NII)},
			{Label: "RII", Value: Multiplier(details.RII)},
		},
		Recommendation:      ipo.Recommendation,
		ApplyForListingGain: ipo.ApplyForListingGain,
		Disabled:            disabled,
	}
}

// GMPVariant marks premium values, which the source writes with a parenthesised percentage
func GMPVariant(gmp string) BadgeVariant {
	if strings.Contains(gmp, "(") {
		return BadgePremium
	}
	return BadgePlain
}

func GMPText(gmp string) string {
	if gmp == "" {
		return "N/A"
	}
	return gmp
}

// Multiplier renders a subscription figure as "<value>x"
func Multiplier(value string) string {
	return value + "x"
}

func buildPagination(page, totalPages int) PaginationView {
	// No result count yet still shows one page
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	return PaginationView{
		Page:       page,
		TotalPages: totalPages,
		HasPrev:    page > 1,
		HasNext:    page < totalPages,
		Label:      fmt.Sprintf("Page %d of %d", page, totalPages),
	}
}
