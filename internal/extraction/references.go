package extraction

import (
	"fmt"
	"strings"

	"github.com/Ayash-Bera/webgpt-analyzer/internal/conversation"
	"github.com/Ayash-Bera/webgpt-analyzer/internal/models"
	"github.com/tidwall/gjson"
)

const productTitlePrefix = "[Product] "

var (
	webpageRefTypes = map[string]bool{
		"grouped_webpages": true,
		"grouped-webpages": true,
	}
	productRefTypes = map[string]bool{
		"products":          true,
		"product":           true,
		"products_carousel": true,
	}
)

// contentReferences reads the citation list of an assistant message.
func contentReferences(node conversation.Node) gjson.Result {
	if refs := node.Metadata().Get("content_references"); refs.IsArray() {
		return refs
	}
	return node.Message.Get("content_references")
}

// references walks content_references of an assistant node. Webpage groups
// become used results when the node is in scope; product references always
// feed the product collection and are mirrored into used results when the
// node is in scope.
func (e *Engine) references(acc *accumulator, node conversation.Node, inScope bool) {
	contentReferences(node).ForEach(func(_, ref gjson.Result) bool {
		refType := ref.Get("type").String()
		switch {
		case webpageRefTypes[refType]:
			if inScope {
				usedFromGroup(acc, ref)
			}
		case productRefTypes[refType]:
			productsFromRef(acc, ref, inScope)
		}
		return true
	})
}

// usedFromGroup takes items first and fallback_items second; both count.
func usedFromGroup(acc *accumulator, ref gjson.Result) {
	for _, key := range []string{"items", "fallback_items"} {
		ref.Get(key).ForEach(func(_, item gjson.Result) bool {
			if r, ok := searchResultFrom(item); ok {
				acc.used.add(r)
			}
			return true
		})
	}
}

func productsFromRef(acc *accumulator, ref gjson.Result, inScope bool) {
	list := ref.Get("products")
	if !list.IsArray() {
		list = ref.Get("items")
	}
	list.ForEach(func(_, raw gjson.Result) bool {
		if !raw.IsObject() {
			return true
		}
		p := productFrom(raw)
		if p.ID == "" || acc.productIDs.add(p.ID) {
			acc.products = append(acc.products, p)
		}
		if inScope {
			synthesizeUsed(acc, p)
		}
		return true
	})
}

func productFrom(raw gjson.Result) models.ProductResult {
	return models.ProductResult{
		ID:          firstString(raw, "id", "product_id"),
		Title:       firstString(raw, "title", "name"),
		URL:         firstString(raw, "url", "link"),
		Price:       priceOf(raw.Get("price")),
		Rating:      firstString(raw, "rating", "rating.value"),
		NumReviews:  firstString(raw, "num_reviews", "review_count", "rating.count"),
		Merchants:   merchantsOf(raw),
		FeaturedTag: strings.TrimSpace(raw.Get("featured_tag").String()),
	}
}

func priceOf(v gjson.Result) string {
	if v.IsObject() {
		if display := firstString(v, "display", "formatted"); display != "" {
			return display
		}
		amount := scalarString(v.Get("amount"))
		currency := scalarString(v.Get("currency"))
		return strings.TrimSpace(amount + " " + currency)
	}
	return scalarString(v)
}

func merchantsOf(raw gjson.Result) []string {
	merchants := []string{}
	add := func(v gjson.Result) {
		name := scalarString(v)
		if v.IsObject() {
			name = firstString(v, "name", "merchant", "title")
		}
		if name != "" {
			merchants = append(merchants, name)
		}
	}
	m := raw.Get("merchants")
	switch {
	case m.IsArray():
		m.ForEach(func(_, v gjson.Result) bool {
			add(v)
			return true
		})
	case m.Exists():
		add(m)
	default:
		add(raw.Get("merchant"))
	}
	return merchants
}

// synthesizeUsed mirrors a product into used results so consumers that only
// read used results still see it. Featured filtering happens later and does
// not undo this.
func synthesizeUsed(acc *accumulator, p models.ProductResult) {
	if p.ID != "" && !acc.synthesized.add(p.ID) {
		return
	}
	title := p.Title
	if title == "" {
		title = p.URL
	}
	acc.used.add(models.SearchResult{
		Title:   productTitlePrefix + title,
		URL:     p.URL,
		Snippet: productSnippet(p),
	})
}

func productSnippet(p models.ProductResult) string {
	var parts []string
	if p.Price != "" {
		parts = append(parts, "Price: "+p.Price)
	}
	switch {
	case p.Rating != "" && p.NumReviews != "":
		parts = append(parts, fmt.Sprintf("Rating: %s (%s reviews)", p.Rating, p.NumReviews))
	case p.Rating != "":
		parts = append(parts, "Rating: "+p.Rating)
	case p.NumReviews != "":
		parts = append(parts, "Reviews: "+p.NumReviews)
	}
	if len(p.Merchants) > 0 {
		parts = append(parts, "Merchants: "+strings.Join(p.Merchants, ", "))
	}
	return strings.Join(parts, " | ")
}
