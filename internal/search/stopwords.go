package search

// DefaultStopwords returns the standard English stopword set. The set
// is plain configuration data; tests and localised deployments inject
// their own via WithStopwords.
func DefaultStopwords() []string {
	return []string{
		"the", "and", "for", "are", "was", "were", "been", "being",
		"this", "that", "these", "those", "with", "from", "have",
		"has", "had", "not", "but", "what", "when", "where", "which",
		"who", "whom", "why", "how", "all", "each", "any", "can",
		"will", "just", "about", "into", "over", "under", "between",
		"through", "during", "before", "after", "above", "below",
		"out", "off", "own", "same", "than", "too", "very", "then",
		"once", "here", "there", "again", "further", "does", "did",
		"doing", "would", "should", "could", "ought", "its", "they",
		"them", "their", "your", "you", "our", "his", "her", "she",
		"him",
	}
}
