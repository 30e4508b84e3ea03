package extract

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"scraperengine/internal/htmlutil"
	"scraperengine/internal/profile"
)

// variantSection and variantKey are where the assembled variant list is
// written once, as a structured value, not merged key-by-key.
const (
	variantSection = "Product Variants"
	variantKey     = "Items"
)

// extractProductVariants iterates variant items matched under a container
// and assembles one structured record per item from optional sub-field
// selectors: title, reference, url, description, image, prices, availability
// and a nested run of the row-pairs algorithm for per-variant spec tables.
// Items with at least one populated field are kept, in document order.
func extractProductVariants(ctx *Context, spec profile.Spec) (int, error) {
	variantSel := spec.Str("variant_selector", "")
	if variantSel == "" {
		return 0, nil
	}
	container, err := htmlutil.Container(ctx.Doc.Doc, spec.Str("container", ""))
	if err != nil {
		return 0, err
	}
	items, err := htmlutil.Select(container, variantSel)
	if err != nil {
		return 0, err
	}

	baseURL := spec.Str("base_url", "")
	fields := spec.Map("fields")
	if len(fields) == 0 {
		return 0, nil
	}

	var list []map[string]any
	items.Each(func(_ int, item *goquery.Selection) {
		info := make(map[string]any)

		putText := func(name, selector string) {
			sel, err := htmlutil.SelectOne(item, selector)
			if err != nil {
				return
			}
			if t := htmlutil.Text(sel); t != "" {
				info[name] = t
			}
		}

		if s := fieldStr(fields, "title"); s != "" {
			putText("title", s)
		}
		if s := fieldStr(fields, "item_reference"); s != "" {
			putText("item_reference", s)
		} else if s := fieldStr(fields, "ref"); s != "" {
			putText("ref", s)
		}
		if s := fieldStr(fields, "description"); s != "" {
			putText("description", s)
		}
		if s := fieldStr(fields, "availability"); s != "" {
			putText("availability", s)
		}

		if s := fieldStr(fields, "url"); s != "" {
			if sel, err := htmlutil.SelectOne(item, s); err == nil {
				if href, ok := sel.Attr("href"); ok && href != "" {
					info["url"] = resolveURL(baseURL, href)
				}
			}
		}
		if s := fieldStr(fields, "image"); s != "" {
			if sel, err := htmlutil.SelectOne(item, s); err == nil {
				if src, ok := sel.Attr("src"); ok && src != "" {
					info["image"] = src
				}
			}
		}

		if s := fieldStr(fields, "list_price"); s != "" {
			if t := priceText(item, s); t != "" {
				info["list_price"] = strings.TrimSpace(strings.TrimSuffix(t, "/"))
			}
		}
		if s := fieldStr(fields, "your_price"); s != "" {
			if t := priceText(item, s); t != "" {
				info["your_price"] = t
			}
		}

		if specsCfg, ok := fields["specs"].(map[string]any); ok {
			if specs := variantSpecs(item, specsCfg); len(specs) > 0 {
				info["specs"] = specs
			}
		}

		if len(info) > 0 {
			list = append(list, info)
		}
	})

	if len(list) == 0 {
		return 0, nil
	}
	ctx.Accum.PutList(variantSection, variantKey, list)
	return len(list), nil
}

func fieldStr(fields map[string]any, key string) string {
	s, _ := fields[key].(string)
	return s
}

// priceText reads a price sub-field. Some vendor markup defers pricing into
// inert <template> fragments that are not part of the live tree, so when the
// direct selector misses, each template is probed: first its parsed
// children, then a re-parse of its text content. Best effort only.
func priceText(item *goquery.Selection, selector string) string {
	if sel, err := htmlutil.SelectOne(item, selector); err != nil {
		return ""
	} else if t := htmlutil.Text(sel); t != "" {
		return t
	}

	var out string
	item.Find("template").EachWithBreak(func(_ int, tmpl *goquery.Selection) bool {
		if sel, err := htmlutil.SelectOne(tmpl, selector); err == nil {
			if t := htmlutil.Text(sel); t != "" {
				out = t
				return false
			}
		}

		inner, err := tmpl.Html()
		if err != nil || strings.TrimSpace(inner) == "" {
			return true
		}
		frag, err := goquery.NewDocumentFromReader(strings.NewReader(inner))
		if err != nil {
			return true
		}
		if sel, err := htmlutil.SelectOne(frag.Selection, selector); err == nil {
			if t := htmlutil.Text(sel); t != "" {
				out = t
				return false
			}
		}
		return true
	})
	return out
}

// variantSpecs runs the nested row-pairs pass inside one variant item.
func variantSpecs(item *goquery.Selection, cfg map[string]any) map[string]string {
	rowsSel := fieldStr(cfg, "rows")
	keySel := fieldStr(cfg, "key")
	valueSel := fieldStr(cfg, "value")
	if rowsSel == "" || keySel == "" || valueSel == "" {
		return nil
	}

	rows, err := htmlutil.Select(item, rowsSel)
	if err != nil {
		return nil
	}

	specs := make(map[string]string)
	rows.Each(func(_ int, row *goquery.Selection) {
		keyElem, err := htmlutil.SelectOne(row, keySel)
		if err != nil {
			return
		}
		valElem, err := htmlutil.SelectOne(row, valueSel)
		if err != nil {
			return
		}
		key := htmlutil.Text(keyElem)
		value := htmlutil.Text(valElem)
		if key != "" && value != "" {
			specs[key] = value
		}
	})
	if len(specs) == 0 {
		return nil
	}
	return specs
}

// resolveURL makes href absolute against base when it is relative. A missing
// or unparseable base leaves href untouched.
func resolveURL(base, href string) string {
	if href == "" || base == "" {
		return href
	}
	if strings.HasPrefix(href, "http:") || strings.HasPrefix(href, "https:") {
		return href
	}
	b, err := url.Parse(base)
	if err != nil {
		return href
	}
	h, err := url.Parse(href)
	if err != nil {
		return href
	}
	return b.ResolveReference(h).String()
}
