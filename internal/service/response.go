package service

import (
	"strings"
	"text/template"

	"go-paper-orders/internal/model"

	"github.com/shopspring/decimal"
)

var responseFuncs = template.FuncMap{
	"money": func(d decimal.Decimal) string { return d.StringFixed(2) },
}

var (
	fulfilledTmpl = template.Must(template.New("fulfilled").Funcs(responseFuncs).Parse(
		`Your order has been successfully processed. Here are the details:
{{range .Lines}}- {{.Quantity}} x {{.ItemName}}: ${{money .TotalPrice}}, estimated delivery {{.DeliveryDate}}
{{end}}Total: ${{money .Total}}`))

	replenishedTmpl = template.Must(template.New("replenished").Funcs(responseFuncs).Parse(
		`Some items were temporarily out of stock. We replenished inventory and your order has been processed:
{{range .Lines}}- {{.Quantity}} x {{.ItemName}}: ${{money .TotalPrice}}, estimated delivery {{.DeliveryDate}}
{{end}}Total: ${{money .Total}}`))

	refusedTmpl = template.Must(template.New("refused").Parse(
		`We apologize, but we cannot fulfill your order. Reason: {{.Reason}}.`))
)

type responseView struct {
	Lines  []model.QuoteLine
	Total  decimal.Decimal
	Reason string
}

// renderResponse turns an outcome into the customer-facing message. Only
// item, quantity, price and delivery date are shown.
func renderResponse(out *Outcome) string {
	view := responseView{Lines: out.Lines, Reason: strings.TrimSuffix(out.Reason, "."), Total: decimal.Zero}
	for _, l := range out.Lines {
		view.Total = view.Total.Add(l.TotalPrice)
	}

	tmpl := refusedTmpl
	switch {
	case out.Fulfilled && len(out.Reorders) > 0:
		tmpl = replenishedTmpl
	case out.Fulfilled:
		tmpl = fulfilledTmpl
	}

	var b strings.Builder
	if err := tmpl.Execute(&b, view); err != nil {
		return "We apologize, but we cannot fulfill your order at this time."
	}
	return b.String()
}
