package search

// DefaultSynonyms returns the fixed query-expansion table. Keys and
// values are already lowercased and pass the tokeniser. Like the
// stopword set, the table is static configuration data and can be
// replaced via WithSynonyms for testing or localisation.
func DefaultSynonyms() map[string][]string {
	return map[string][]string{
		"define":       {"definition", "meaning"},
		"explain":      {"describe", "discuss"},
		"cause":        {"reason", "why"},
		"causes":       {"reasons"},
		"result":       {"outcome", "effect", "consequence"},
		"example":      {"instance", "illustration"},
		"important":    {"key", "significant", "main"},
		"method":       {"approach", "technique", "procedure"},
		"purpose":      {"goal", "aim", "objective"},
		"difference":   {"distinction", "contrast"},
		"advantage":    {"benefit", "strength"},
		"disadvantage": {"drawback", "weakness", "limitation"},
		"type":         {"kind", "category", "class"},
		"part":         {"component", "section", "element"},
		"process":      {"procedure", "steps", "stages"},
		"function":     {"role", "purpose"},
		"structure":    {"organisation", "arrangement", "form"},
		"theory":       {"principle", "concept"},
		"problem":      {"issue", "challenge"},
		"solution":     {"answer", "resolution"},
		"begin":        {"start", "origin"},
		"end":          {"conclusion", "finish"},
		"increase":     {"rise", "growth"},
		"decrease":     {"decline", "reduction"},
	}
}
