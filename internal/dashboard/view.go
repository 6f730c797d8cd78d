package dashboard

import (
	"embed"
	"fmt"
	"html/template"

	"github.com/dustin/go-humanize"

	"OilDashboard/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplate = template.Must(template.New("dashboard").Funcs(template.FuncMap{
	"price": func(v float64) string { return fmt.Sprintf("%.2f", v) },
	"comma": func(n int) string { return humanize.Comma(int64(n)) },
}).ParseFS(templateFS, "templates/*.html"))

// PageConfig is the static page setup.
type PageConfig struct {
	Title   string
	Heading string
	Layout  string
	Style   PageStyle
}

type PageStyle struct {
	Background        string
	SidebarBackground string
	SidebarText       string
	Text              string
}

func (p PageConfig) withDefaults() PageConfig {
	if p.Title == "" {
		p.Title = "Oil Price Dashboard"
	}
	if p.Heading == "" {
		p.Heading = "Oil Price Visualization Dashboard"
	}
	if p.Layout != "centered" {
		p.Layout = "wide"
	}
	if p.Style.Background == "" {
		p.Style.Background = "#f0f2f6"
	}
	if p.Style.SidebarBackground == "" {
		p.Style.SidebarBackground = "#1f77b4"
	}
	if p.Style.SidebarText == "" {
		p.Style.SidebarText = "#ffffff"
	}
	if p.Style.Text == "" {
		p.Style.Text = "#333333"
	}
	return p
}

type rawRow struct {
	Date   string
	Price  float64
	Series string
}

type pageView struct {
	Page PageConfig

	// Set on error pages.
	Error     string
	Retryable bool
	Retry     string

	Start      string
	End        string
	Raw        bool
	RowCount   int
	HasRows    bool
	HasMonthly bool
	Rows       []rawRow
}

func newPageView(page PageConfig, sel selection, monthly []model.MonthlyAverage) pageView {
	v := pageView{
		Page:       page,
		Start:      sel.Start.Format(model.DateLayout),
		End:        sel.End.Format(model.DateLayout),
		Raw:        sel.Raw,
		RowCount:   len(sel.Filtered),
		HasRows:    len(sel.Filtered) > 0,
		HasMonthly: len(monthly) > 0,
	}
	if sel.Raw {
		v.Rows = make([]rawRow, 0, len(sel.Filtered))
		for _, obs := range sel.Filtered {
			v.Rows = append(v.Rows, rawRow{Date: obs.DateString(), Price: obs.Price, Series: string(obs.Series)})
		}
	}
	return v
}

func newErrorView(page PageConfig, err error, retry string, retryable bool) pageView {
	return pageView{
		Page:      page,
		Error:     err.Error(),
		Retryable: retryable,
		Retry:     retry,
	}
}
