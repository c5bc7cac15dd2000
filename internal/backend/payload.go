package backend

// Payload is the canonical ingestion record accepted by POST /osint/ingest:
// a source descriptor plus one intelligence item.
type Payload struct {
	Source SourcePayload `json:"source"`
	Item   ItemPayload   `json:"item"`
}

type SourcePayload struct {
	ExternalID string  `json:"externalId"`
	Type       string  `json:"type"`
	Name       string  `json:"name"`
	URL        *string `json:"url"`
	Category   string  `json:"category"`
}

type ItemPayload struct {
	ExternalID  string   `json:"externalId"`
	Kind        string   `json:"kind"`
	Title       *string  `json:"title"`
	Content     string   `json:"content"`
	Summary     string   `json:"summary"`
	Language    string   `json:"language"`
	Priority    string   `json:"priority"`
	Type        string   `json:"type"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags"`
	Credibility float64  `json:"credibility"`
	ParseDate   string   `json:"parseDate"`
	EventDate   *string  `json:"eventDate"`
	RawURL      *string  `json:"rawUrl"`
	MediaURL    *string  `json:"mediaUrl"`
	Meta        Meta     `json:"meta"`
}

type Meta struct {
	Telegram         TelegramMeta `json:"telegram"`
	SourceCategory   string       `json:"sourceCategory"`
	YouTubeURL       string       `json:"youtubeUrl,omitempty"`
	OriginalMediaURL string       `json:"originalMediaUrl,omitempty"`
}

type TelegramMeta struct {
	Channel     string `json:"channel"`
	MessageID   int64  `json:"messageId"`
	PublishedAt string `json:"publishedAt"`
}
