package config

const (
	defaultBind                   = "0.0.0.0:7000"
	defaultShutdownTimeoutSeconds = 5
	defaultTMDBBaseURL            = "https://api.themoviedb.org/3"
	defaultTMDBImageBaseURL       = "https://image.tmdb.org/t/p/w500"
	defaultTMDBLanguage           = "en-US"
	defaultTMDBTimeoutSeconds     = 10
	defaultGeminiBaseURL          = "https://generativelanguage.googleapis.com/v1beta"
	defaultGeminiModel            = "gemini-2.5-flash"
	defaultGeminiTimeoutSeconds   = 30
	defaultGeminiMaxOutputTokens  = 65536
	defaultRecommendationCount    = 10
	defaultContentFilter          = "same"
	defaultCacheTTLMinutes        = 60
	defaultReconcileConcurrency   = 10
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"

	// MinRecommendationCount and MaxRecommendationCount bound the number of
	// suggestions requested from the model.
	MinRecommendationCount = 1
	MaxRecommendationCount = 30
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Server: Server{
			Bind:                   defaultBind,
			MetricsEnabled:         true,
			ShutdownTimeoutSeconds: defaultShutdownTimeoutSeconds,
		},
		TMDB: TMDB{
			BaseURL:        defaultTMDBBaseURL,
			ImageBaseURL:   defaultTMDBImageBaseURL,
			Language:       defaultTMDBLanguage,
			TimeoutSeconds: defaultTMDBTimeoutSeconds,
		},
		Gemini: Gemini{
			BaseURL:         defaultGeminiBaseURL,
			Model:           defaultGeminiModel,
			TimeoutSeconds:  defaultGeminiTimeoutSeconds,
			MaxOutputTokens: defaultGeminiMaxOutputTokens,
		},
		Recommendations: Recommendations{
			DefaultCount:         defaultRecommendationCount,
			ContentFilter:        defaultContentFilter,
			CacheTTLMinutes:      defaultCacheTTLMinutes,
			ReconcileConcurrency: defaultReconcileConcurrency,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
