package extract

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"scraperengine/internal/htmlutil"
	"scraperengine/internal/jsonpath"
	"scraperengine/internal/jsonrepair"
	"scraperengine/internal/profile"
)

// abbDatasheetURL builds the library download URL for a document id found in
// an attribute-group payload.
const abbDatasheetURL = "https://search.abb.com/library/Download.aspx?DocumentID=%s&LanguageCode=en&DocumentPartId=&Action=Launch"

// extractEmbeddedJSON pulls product data out of a JSON payload a vendor
// embedded in the document: either an element attribute holding the whole
// payload as a (often badly escaped) JSON string, or an inline script
// assignment located by a raw-text pattern. The payload is repaired when the
// strict parse fails, then mined via configured path expressions.
//
// Every missing path is a normal empty result, contributing zero to the
// count; only an uncompilable script pattern is an error.
func extractEmbeddedJSON(ctx *Context, spec profile.Spec) (int, error) {
	data, err := embeddedPayload(ctx, spec)
	if err != nil {
		return 0, err
	}
	if data == nil {
		return 0, nil
	}

	cfg := spec.Map("extract")
	if len(cfg) == 0 {
		return 0, nil
	}

	count := 0
	if c, ok := cfg["product_id"].(map[string]any); ok {
		count += pullProductID(data, c, ctx.Accum)
	}
	if c, ok := cfg["product_name"].(map[string]any); ok {
		count += pullPathScalar(data, c, ctx.Accum, "Product Info", "Product Name")
	}
	if c, ok := cfg["image"].(map[string]any); ok {
		count += pullImage(data, c, ctx.Accum)
	}
	if c, ok := cfg["variants"].(map[string]any); ok {
		count += pullVariants(data, c, ctx.Accum)
	}
	if c, ok := cfg["specifications"].(map[string]any); ok {
		count += pullSpecTables(data, c, ctx.Accum)
	}
	if c, ok := cfg["attribute_groups"].(map[string]any); ok {
		count += pullAttributeGroups(data, c, ctx.Accum)
	}
	if c, ok := cfg["description"].(map[string]any); ok {
		count += pullDescription(data, c, ctx.Accum)
	}
	if c, ok := cfg["metadata"].(map[string]any); ok {
		count += pullMetadata(c, data, ctx.Accum)
	}
	return count, nil
}

// embeddedPayload locates and parses the vendor payload. Strict parse is
// tried first; the repair pass only runs when that fails. A payload that
// stays unparseable after repair means "no data", not an error.
func embeddedPayload(ctx *Context, spec profile.Spec) (any, error) {
	var raw string

	if pattern := spec.Str("script_pattern", ""); pattern != "" {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("compile script_pattern %q: %w", pattern, err)
		}
		m := re.FindStringSubmatch(ctx.Doc.Raw)
		if len(m) < 2 {
			return nil, nil
		}
		raw = m[1]
	} else {
		selector := spec.Str("json_selector", "[plain-all-data]")
		attr := spec.Str("json_attribute", "plain-all-data")

		elem, err := htmlutil.SelectOne(ctx.Doc.Doc.Selection, selector)
		if err != nil {
			return nil, err
		}
		v, ok := elem.Attr(attr)
		if !ok || strings.TrimSpace(v) == "" {
			return nil, nil
		}
		raw = v
	}

	var data any
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		repaired, err := jsonrepair.Parse(raw)
		if err != nil {
			return nil, nil
		}
		data = repaired
	}

	if spec.Bool("merge_jsonld", false) {
		data = mergeStructuredData(ctx.Doc.Doc, data)
	}
	return data, nil
}

// mergeStructuredData folds JSON-LD Product blocks into the payload as a
// secondary source; the embedded payload wins on conflicts.
func mergeStructuredData(doc *goquery.Document, data any) any {
	base, ok := data.(map[string]any)
	if !ok {
		return data
	}

	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		var v any
		if err := json.Unmarshal([]byte(s.Text()), &v); err != nil {
			return
		}
		m, ok := v.(map[string]any)
		if !ok || m["@type"] != "Product" {
			return
		}
		base = deepMerge(m, base)
	})
	return base
}

// deepMerge merges src over dst for conflicting scalar keys while recursing
// into maps present on both sides.
func deepMerge(dst, src map[string]any) map[string]any {
	out := make(map[string]any, len(dst)+len(src))
	for k, v := range dst {
		out[k] = v
	}
	for k, v := range src {
		if dm, ok := out[k].(map[string]any); ok {
			if sm, ok := v.(map[string]any); ok {
				out[k] = deepMerge(dm, sm)
				continue
			}
		}
		out[k] = v
	}
	return out
}

func pullProductID(data any, cfg map[string]any, acc *Accumulator) int {
	v, ok := jsonpath.Get(data, fieldStr(cfg, "path"))
	if !ok {
		v, ok = jsonpath.Get(data, fieldStr(cfg, "fallback_path"))
	}
	if !ok {
		return 0
	}
	if s := scalarString(v); s != "" {
		acc.Add("Product Info", "Product ID", s)
		return 1
	}
	return 0
}

func pullPathScalar(data any, cfg map[string]any, acc *Accumulator, section, key string) int {
	v, ok := jsonpath.Get(data, fieldStr(cfg, "path"))
	if !ok {
		return 0
	}
	if s := scalarString(v); s != "" {
		acc.Add(section, key, s)
		return 1
	}
	return 0
}

// pullImage accepts a string, a list (first element, possibly an object with
// url/masterUrl) or an object at the configured path.
func pullImage(data any, cfg map[string]any, acc *Accumulator) int {
	v, ok := jsonpath.Get(data, fieldStr(cfg, "path"))
	if !ok {
		return 0
	}

	if arr, isArr := v.([]any); isArr {
		if len(arr) == 0 {
			return 0
		}
		v = arr[0]
	}
	if m, isMap := v.(map[string]any); isMap {
		if u, _ := m["url"].(string); u != "" {
			v = u
		} else if u, _ := m["masterUrl"].(string); u != "" {
			v = u
		}
	}

	if s, ok := v.(string); ok && s != "" {
		acc.Add("Product Info", "Image URL", s)
		return 1
	}
	return 0
}

// pullVariants builds one sub-record per variant from a configured field
// allow-list and writes the full list once.
func pullVariants(data any, cfg map[string]any, acc *Accumulator) int {
	arr, ok := jsonpath.Get(data, fieldStr(cfg, "path"))
	if !ok {
		return 0
	}
	items, ok := arr.([]any)
	if !ok {
		return 0
	}

	var fields []string
	if raw, ok := cfg["extract_fields"].([]any); ok {
		for _, f := range raw {
			if s, ok := f.(string); ok && s != "" {
				fields = append(fields, s)
			}
		}
	}

	var list []map[string]any
	for _, it := range items {
		variant, ok := it.(map[string]any)
		if !ok {
			continue
		}
		info := make(map[string]any)
		for _, f := range fields {
			if v, ok := variant[f]; ok && v != nil {
				info[f] = v
			}
		}
		if len(info) > 0 {
			list = append(list, info)
		}
	}

	if len(list) == 0 {
		return 0
	}
	acc.PutList(variantSection, variantKey, list)
	return len(list)
}

// pullSpecTables mines table-shaped specification data: each table
// contributes one section whose keys are characteristic names and whose
// values are the characteristic's label texts (accumulated individually, so
// a single label collapses to a scalar and multiple labels stay an array).
func pullSpecTables(data any, cfg map[string]any, acc *Accumulator) int {
	arr, ok := jsonpath.Get(data, fieldStr(cfg, "path"))
	if !ok {
		return 0
	}
	tables, ok := arr.([]any)
	if !ok {
		return 0
	}

	tableNameKey := cfgKey(cfg, "table_name_key", "tableName")
	rowsKey := cfgKey(cfg, "rows_key", "rows")
	charNameKey := cfgKey(cfg, "char_name_key", "characteristicName")
	charValuesKey := cfgKey(cfg, "char_values_key", "characteristicValues")
	labelKey := cfgKey(cfg, "label_key", "labelText")

	count := 0
	for _, t := range tables {
		table, ok := t.(map[string]any)
		if !ok {
			continue
		}
		section, _ := table[tableNameKey].(string)
		if section == "" {
			section = "Specifications"
		}
		rows, _ := table[rowsKey].([]any)

		for _, r := range rows {
			row, ok := r.(map[string]any)
			if !ok {
				continue
			}
			key, _ := row[charNameKey].(string)
			if key == "" {
				continue
			}

			values, _ := row[charValuesKey].([]any)
			wrote := false
			for _, v := range values {
				vm, ok := v.(map[string]any)
				if !ok {
					continue
				}
				label, _ := vm[labelKey].(string)
				if label = stripMarkup(label); label != "" {
					acc.Add(section, key, label)
					wrote = true
				}
			}
			if wrote {
				count++
			}
		}
	}
	return count
}

// defaultGroupPaths are the known locations of attribute-group payloads.
var defaultGroupPaths = []string{
	"ProductViewModel.Product.attributeGroups.items",
	"Product.attributeGroups.items",
	"attributeGroups.items",
}

// pullAttributeGroups mines group-shaped specification data: every visible
// group becomes a section holding its attributes' display names and joined
// value texts. A technical-datasheet attribute found in any group yields a
// generated download URL.
func pullAttributeGroups(data any, cfg map[string]any, acc *Accumulator) int {
	paths := defaultGroupPaths
	if raw, ok := cfg["paths"].([]any); ok && len(raw) > 0 {
		paths = nil
		for _, p := range raw {
			if s, ok := p.(string); ok && s != "" {
				paths = append(paths, s)
			}
		}
	}

	var groups []any
	for _, p := range paths {
		if v, ok := jsonpath.Get(data, p); ok {
			if arr, ok := v.([]any); ok && len(arr) > 0 {
				groups = arr
				break
			}
		}
	}
	if groups == nil {
		return 0
	}

	count := 0
	for _, g := range groups {
		group, ok := g.(map[string]any)
		if !ok {
			continue
		}
		if visible, ok := group["visible"].(bool); ok && !visible {
			continue
		}

		groupDesc, _ := group["description"].(string)
		if groupDesc == "" {
			groupDesc = "Specifications"
		}
		attrs, ok := group["attributes"].(map[string]any)
		if !ok {
			continue
		}

		count += datasheetFromGroup(attrs, acc)

		// Stable order: attribute payloads are maps, and two attributes can
		// share a display name, so iteration order decides the accumulated
		// value order.
		codes := make([]string, 0, len(attrs))
		for code := range attrs {
			codes = append(codes, code)
		}
		sort.Strings(codes)

		for _, code := range codes {
			attr, ok := attrs[code].(map[string]any)
			if !ok {
				continue
			}
			if internal, _ := attr["isInternal"].(bool); internal {
				continue
			}
			if internal, _ := attr["internal"].(bool); internal {
				continue
			}

			name, _ := attr["attributeName"].(string)
			if name == "" {
				name = code
			}

			texts := valueTexts(attr["values"])
			if len(texts) == 0 {
				continue
			}
			acc.Add(groupDesc, name, strings.Join(texts, " / "))
			count++
		}
	}
	return count
}

// datasheetFromGroup resolves the DatSheTecInf attribute into a generated
// PDF download URL, once per pass.
func datasheetFromGroup(attrs map[string]any, acc *Accumulator) int {
	if _, exists := acc.First("Product Info", "Datasheet PDF"); exists {
		return 0
	}
	docID, ok := jsonpath.GetString(attrs, "DatSheTecInf.values[0].link.documentId")
	if !ok {
		return 0
	}
	acc.Add("Product Info", "Datasheet PDF", fmt.Sprintf(abbDatasheetURL, docID))
	return 1
}

func valueTexts(raw any) []string {
	values, ok := raw.([]any)
	if !ok {
		return nil
	}
	var texts []string
	for _, v := range values {
		switch t := v.(type) {
		case map[string]any:
			if s, _ := t["text"].(string); s != "" {
				texts = append(texts, s)
			}
		case string:
			if t != "" {
				texts = append(texts, t)
			}
		}
	}
	return texts
}

// pullDescription joins a sentence list or takes a plain string.
func pullDescription(data any, cfg map[string]any, acc *Accumulator) int {
	v, ok := jsonpath.Get(data, fieldStr(cfg, "path"))
	if !ok {
		return 0
	}

	var description string
	switch t := v.(type) {
	case []any:
		var parts []string
		for _, s := range t {
			if str := scalarString(s); str != "" {
				parts = append(parts, str)
			}
		}
		description = strings.Join(parts, " ")
	case string:
		description = t
	default:
		return 0
	}

	if description = stripMarkup(description); description == "" {
		return 0
	}
	acc.Add("Product Info", "Description", description)
	return 1
}

// pullMetadata resolves an open-ended key -> path map into the Metadata
// section.
func pullMetadata(cfg map[string]any, data any, acc *Accumulator) int {
	count := 0
	for key, raw := range cfg {
		path, ok := raw.(string)
		if !ok {
			continue
		}
		v, ok := jsonpath.Get(data, path)
		if !ok {
			continue
		}
		if s := scalarString(v); s != "" {
			acc.Add("Metadata", key, s)
			count++
		}
	}
	return count
}

func cfgKey(cfg map[string]any, key, def string) string {
	if s, ok := cfg[key].(string); ok && s != "" {
		return s
	}
	return def
}

// scalarString renders a JSON scalar as a string; maps and slices yield "".
func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == math.Trunc(t) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	}
	return ""
}

var (
	brTagRe  = regexp.MustCompile(`(?i)<br\s*/?>`)
	anyTagRe = regexp.MustCompile(`<[^>]+>`)
)

// stripMarkup removes markup from an embedded-payload text value, keeping
// line breaks introduced by <br> tags.
func stripMarkup(s string) string {
	if s == "" {
		return ""
	}
	s = brTagRe.ReplaceAllString(s, "\n")
	s = anyTagRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
