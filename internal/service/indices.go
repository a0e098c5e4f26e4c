package service

// IndexDefinition names an index fetched on the paid tier.
type IndexDefinition struct {
	Symbol   string
	Name     string
	Exchange string
}

// DefaultIndices are the US benchmarks served when index quotes are enabled.
var DefaultIndices = []IndexDefinition{
	{Symbol: "^GSPC", Name: "S&P 500", Exchange: "NYSE"},
	{Symbol: "^DJI", Name: "Dow Jones Industrial Average", Exchange: "NYSE"},
	{Symbol: "^IXIC", Name: "NASDAQ Composite", Exchange: "NASDAQ"},
}
