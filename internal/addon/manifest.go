package addon

import "morelikethis/internal/media"

const (
	// AddonID is the Stremio addon identifier.
	AddonID = "com.morelikethis.stremio"
	// Version is the advertised addon version.
	Version = "1.4.0"

	movieCatalogID  = "morelikethis-movie"
	seriesCatalogID = "morelikethis-series"
)

// Manifest is the Stremio addon manifest.
type Manifest struct {
	ID            string        `json:"id"`
	Version       string        `json:"version"`
	Name          string        `json:"name"`
	Description   string        `json:"description"`
	Logo          string        `json:"logo,omitempty"`
	Resources     []string      `json:"resources"`
	Types         []string      `json:"types"`
	IDPrefixes    []string      `json:"idPrefixes"`
	Catalogs      []Catalog     `json:"catalogs"`
	Config        []ConfigField `json:"config"`
	BehaviorHints ManifestHints `json:"behaviorHints"`
}

// Catalog describes one addon catalogue.
type Catalog struct {
	Type  string       `json:"type"`
	ID    string       `json:"id"`
	Name  string       `json:"name"`
	Extra []ExtraField `json:"extra,omitempty"`
}

// ExtraField names an optional catalogue argument.
type ExtraField struct {
	Name       string `json:"name"`
	IsRequired bool   `json:"isRequired,omitempty"`
}

// ConfigField describes one user-configurable setting.
type ConfigField struct {
	Key      string `json:"key"`
	Type     string `json:"type"`
	Title    string `json:"title"`
	Required bool   `json:"required"`
}

// ManifestHints are Stremio behaviour flags.
type ManifestHints struct {
	Configurable          bool `json:"configurable"`
	ConfigurationRequired bool `json:"configurationRequired"`
}

// BuildManifest returns the addon manifest.
func BuildManifest() Manifest {
	return Manifest{
		ID:          AddonID,
		Version:     Version,
		Name:        "More Like This",
		Description: "Discover similar movies and series based on what you love.",
		Resources:   []string{"catalog", "meta", "stream"},
		Types:       []string{string(media.KindMovie), string(media.KindSeries)},
		IDPrefixes:  []string{"tt"},
		Catalogs: []Catalog{
			{Type: string(media.KindMovie), ID: movieCatalogID, Name: "More Like This", Extra: []ExtraField{{Name: "search"}}},
			{Type: string(media.KindSeries), ID: seriesCatalogID, Name: "More Like This", Extra: []ExtraField{{Name: "search"}}},
		},
		Config: []ConfigField{
			{Key: "tmdbApiKey", Type: "text", Title: "TMDB API Key (for movie lookup)"},
			{Key: "geminiApiKey", Type: "text", Title: "Gemini AI API Key (required for recommendations)"},
			{Key: "geminiModel", Type: "text", Title: "Gemini Model"},
			{Key: "maxResults", Type: "text", Title: "Number of recommendations (1-30)"},
			{Key: "contentTypeFilter", Type: "text", Title: "Content type filter (same/all)"},
		},
		BehaviorHints: ManifestHints{Configurable: true},
	}
}

func catalogIDFor(kind media.Kind) string {
	if kind == media.KindSeries {
		return seriesCatalogID
	}
	return movieCatalogID
}
