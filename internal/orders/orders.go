// Package orders turns free-text purchase requests into structured line
// items priced against the current product catalog. The model only chooses
// products and quantities; prices always come from the catalog snapshot so
// a hallucinated price can never reach the response.
package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Aytaditya/salessense/internal/catalog"
	"github.com/Aytaditya/salessense/internal/llm"
	"github.com/Aytaditya/salessense/internal/synth"
)

const systemPrompt = "You extract purchase orders from free text. " +
	"Match each requested product to the closest catalog entry by name and return ONLY a fenced ```json block " +
	"containing a JSON array of objects with keys \"product\" (the exact catalog name, or the raw text if nothing matches) " +
	"and \"quantity\" (a positive integer). Before the block, write one sentence restating the order."

type Item struct {
	Product   string  `json:"product"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	LineTotal float64 `json:"line_total"`
	Matched   bool    `json:"matched"`
}

type Order struct {
	Interpretation string  `json:"interpretation"`
	Items          []Item  `json:"items"`
	Total          float64 `json:"total"`
	CatalogVersion int64   `json:"catalog_version"`
}

type Parser struct {
	generator llm.Generator
	store     *catalog.Store
}

func NewParser(generator llm.Generator, store *catalog.Store) *Parser {
	return &Parser{generator: generator, store: store}
}

func (p *Parser) Parse(ctx context.Context, text string) (Order, error) {
	if strings.TrimSpace(text) == "" {
		return Order{}, fmt.Errorf("order text is required")
	}

	snapshot := p.store.Current()
	response, err := p.generator.Generate(ctx, systemPrompt, buildUserPrompt(snapshot, text))
	if err != nil {
		return Order{}, fmt.Errorf("generate order extraction: %w", err)
	}

	parsed := synth.ParseFenced("json", response)
	if parsed.Query == "" {
		return Order{}, fmt.Errorf("model response contained no json block")
	}

	var raw []struct {
		Product  string `json:"product"`
		Quantity int    `json:"quantity"`
	}
	if err := json.Unmarshal([]byte(parsed.Query), &raw); err != nil {
		return Order{}, fmt.Errorf("decode order items: %w", err)
	}

	order := Order{
		Interpretation: parsed.Interpretation,
		Items:          make([]Item, 0, len(raw)),
		CatalogVersion: snapshot.Version,
	}
	for _, entry := range raw {
		if strings.TrimSpace(entry.Product) == "" {
			continue
		}
		quantity := entry.Quantity
		if quantity < 1 {
			quantity = 1
		}
		item := Item{Product: entry.Product, Quantity: quantity}
		if product, ok := snapshot.FindByName(entry.Product); ok {
			item.Matched = true
			item.UnitPrice = product.UnitPrice
			item.LineTotal = product.UnitPrice * float64(quantity)
		}
		order.Items = append(order.Items, item)
		order.Total += item.LineTotal
	}
	return order, nil
}

func buildUserPrompt(snapshot *catalog.Snapshot, text string) string {
	var b strings.Builder
	b.WriteString("Product catalog (name, unit price):\n")
	for _, product := range snapshot.Products {
		fmt.Fprintf(&b, "- %s: %.2f\n", product.Name, product.UnitPrice)
	}
	fmt.Fprintf(&b, "\nOrder text:\n%s\n", strings.TrimSpace(text))
	return b.String()
}
