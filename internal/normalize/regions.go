package normalize

// Default region tables. Groups may carry their own copies in policy.
var (
	DefaultStates = map[string]string{
		"VIC": "Victoria",
		"NSW": "New South Wales",
		"ACT": "Australian Capital Territory",
	}
	DefaultCountries = map[string]string{
		"AU": "Australia",
	}
)

const (
	StateVictoria         = "Victoria"
	StateNewSouthWales    = "New South Wales"
	StateCapitalTerritory = "Australian Capital Territory"
)

// MapState expands a province code using table. Unknown codes pass through.
func MapState(code string, table map[string]string) string {
	if table == nil {
		table = DefaultStates
	}
	return lookup(code, table)
}

// MapCountry expands a country code using table. Unknown codes pass through.
func MapCountry(code string, table map[string]string) string {
	if table == nil {
		table = DefaultCountries
	}
	return lookup(code, table)
}

// CityForState derives the capital used as City for the given full state name.
func CityForState(state string) string {
	switch state {
	case StateVictoria:
		return "Melbourne"
	case StateNewSouthWales:
		return "Sydney"
	default:
		return ""
	}
}

func lookup(code string, table map[string]string) string {
	c := Clean(code)
	if full, ok := table[c]; ok {
		return full
	}
	return c
}
