package cda

// DefaultPublicDebtLabel is the generic federal public-debt category that
// OverrideCategory refines.
const DefaultPublicDebtLabel = "Títulos Públicos"

// FilterByEntity keeps the records of one fund. Matching is exact: the
// identifier must use the upstream format ("11.111.111/0001-11"). An empty
// result means the fund has no data, not an error.
func FilterByEntity(records []Record, fundID string) []Record {
	var out []Record
	for _, r := range records {
		if r.FundID() == fundID {
			out = append(out, r)
		}
	}
	return out
}

// FilterByCategory keeps records whose category is one of categories.
// No categories keeps everything.
func FilterByCategory(records []Record, categories ...string) []Record {
	if len(categories) == 0 {
		return records
	}
	want := make(map[string]bool, len(categories))
	for _, c := range categories {
		want[c] = true
	}
	var out []Record
	for _, r := range records {
		if want[r.Category()] {
			out = append(out, r)
		}
	}
	return out
}

// OverrideCategory replaces genericLabel with the public-security type
// (e.g. "LTN", "NTN-B") on records that carry one. The input is not modified.
// Applying it twice gives the same result as applying it once.
func OverrideCategory(records []Record, genericLabel string) []Record {
	if genericLabel == "" {
		genericLabel = DefaultPublicDebtLabel
	}
	out := make([]Record, len(records))
	for i, r := range records {
		specific := r.Fields[FieldPublicSecurityType]
		if r.Category() == genericLabel && specific != "" {
			r = r.clone()
			r.Fields[FieldCategory] = specific
		}
		out[i] = r
	}
	return out
}
