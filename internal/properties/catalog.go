package properties

// Template is a named, immutable configuration preset.
type Template struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	HasTimeData bool   `json:"hasTimeData"` // designed for time-series flows
	Config      Config `json:"config"`
}

func (t Template) clone() Template {
	t.Config = t.Config.Clone()
	return t
}

// catalog is built once and never mutated; accessors hand out copies.
var catalog = []Template{
	{
		Name:        "Default",
		Description: "Clean and simple - good starting point",
		Config: Config{
			KeyColorScheme:    "Default",
			KeyDarkMode:       No,
			KeyAnimateFlows:   No,
			KeyClustering:     Yes,
			KeyFadeAmount:     "45",
			KeyBaseMapOpacity: "75",
		},
	},
	{
		Name:        "Dark Teal",
		Description: "Dark basemap with teal color scheme",
		Config: Config{
			KeyColorScheme:    "Teal",
			KeyDarkMode:       Yes,
			KeyAnimateFlows:   No,
			KeyClustering:     Yes,
			KeyFadeAmount:     "45",
			KeyBaseMapOpacity: "75",
		},
	},
	{
		Name:        "Animated Sunset",
		Description: "Vibrant sunset colors with flowing animation",
		Config: Config{
			KeyColorScheme:    "Sunset",
			KeyDarkMode:       Yes,
			KeyAnimateFlows:   Yes,
			KeyClustering:     No,
			KeyFadeAmount:     "24",
			KeyBaseMapOpacity: "75",
		},
	},
	{
		Name:        "Scientific Viridis",
		Description: "Perceptually uniform color scheme for scientific data",
		Config: Config{
			KeyColorScheme:    "Viridis",
			KeyDarkMode:       Yes,
			KeyAnimateFlows:   No,
			KeyClustering:     Yes,
			KeyFadeAmount:     "45",
			KeyBaseMapOpacity: "75",
		},
	},
	{
		Name:        "Warm Magma",
		Description: "Hot lava-like colors for high-intensity flows",
		Config: Config{
			KeyColorScheme:    "Magma",
			KeyDarkMode:       Yes,
			KeyAnimateFlows:   No,
			KeyClustering:     Yes,
			KeyFadeAmount:     "45",
			KeyBaseMapOpacity: "75",
		},
	},
	{
		Name:        "Cool Blues",
		Description: "Calm blue palette on light background",
		Config: Config{
			KeyColorScheme:    "Blues",
			KeyDarkMode:       No,
			KeyAnimateFlows:   No,
			KeyClustering:     Yes,
			KeyFadeAmount:     "50",
			KeyBaseMapOpacity: "75",
		},
	},
	{
		Name:        "Time-Series: Daily Flow",
		Description: "Daily time-series with timeline controls",
		HasTimeData: true,
		Config: Config{
			KeyColorScheme:    "Default",
			KeyDarkMode:       Yes,
			KeyAnimateFlows:   Yes,
			KeyClustering:     Yes,
			KeyFadeAmount:     "50",
			KeyBaseMapOpacity: "75",
		},
	},
	{
		Name:        "Time-Series: Hourly Animation",
		Description: "Hourly data with auto-play animation",
		HasTimeData: true,
		Config: Config{
			KeyColorScheme:    "Sunset",
			KeyDarkMode:       Yes,
			KeyAnimateFlows:   Yes,
			KeyClustering:     No,
			KeyFadeAmount:     "35",
			KeyBaseMapOpacity: "65",
		},
	},
}

var catalogIndex = func() map[string]int {
	idx := make(map[string]int, len(catalog))
	for i, t := range catalog {
		if _, dup := idx[t.Name]; dup {
			panic("properties: duplicate template name " + t.Name)
		}
		idx[t.Name] = i
	}
	return idx
}()

// Templates returns every template in catalog order.
func Templates() []Template {
	return filter(func(Template) bool { return true })
}

// Standard returns the templates not aimed at time-series data.
func Standard() []Template {
	return filter(func(t Template) bool { return !t.HasTimeData })
}

// TimeSeries returns the templates designed for flows with a time column.
func TimeSeries() []Template {
	return filter(func(t Template) bool { return t.HasTimeData })
}

// Lookup returns the template with the given name.
func Lookup(name string) (Template, bool) {
	i, ok := catalogIndex[name]
	if !ok {
		return Template{}, false
	}
	return catalog[i].clone(), true
}

// RequiresTimeData reports whether name is a time-series template.
func RequiresTimeData(name string) bool {
	i, ok := catalogIndex[name]
	return ok && catalog[i].HasTimeData
}

func filter(keep func(Template) bool) []Template {
	out := make([]Template, 0, len(catalog))
	for _, t := range catalog {
		if keep(t) {
			out = append(out, t.clone())
		}
	}
	return out
}

// colorSchemes lists the palette names accepted for colors.scheme.
var colorSchemes = []string{
	"Default",
	"Blues", "BluGrn", "BluYl", "BrwnYl", "BuGn", "BuPu", "Burg", "BurgYl",
	"Cool", "DarkMint", "Emrld", "GnBu", "Grayish", "Greens", "Greys",
	"Inferno", "Magenta", "Magma", "Mint", "Oranges", "OrRd", "OrYel",
	"Peach", "PinkYl", "Plasma", "PuBu", "PuBuGn", "PuRd", "Purp", "Purples",
	"PurpOr", "RdPu", "RedOr", "Reds", "Sunset", "SunsetDark", "Teal",
	"TealGrn", "Viridis", "Warm", "YlGn", "YlGnBu", "YlOrBr", "YlOrRd",
}

// ColorSchemes returns the known palette names.
func ColorSchemes() []string {
	return append([]string(nil), colorSchemes...)
}

// IsColorScheme reports whether name is a known palette.
func IsColorScheme(name string) bool {
	for _, s := range colorSchemes {
		if s == name {
			return true
		}
	}
	return false
}
