package cfg

type Cfg struct {
	// Feed configuration
	FeedBaseURL string
	FeedPath    string
	UserAgent   string

	// Translator configuration
	TranslateEndpoint  string
	TranslateEngine    string
	TranslateLang      string
	TranslationWarning string

	// Webhook configuration
	WebhookURL string

	// Media configuration
	YtdlpPath   string
	MediaDir    string
	DeleteAfter bool

	// Persistence configuration
	CheckpointPath string
	DBPath         string

	// Runtime configuration
	HTTPTimeout int
	Interval    int
	Port        string
	LogFile     string
	Debug       bool
	Version     string
}
