package pipeline

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/23Serhii/avesint-platform/internal/backend"
	"github.com/23Serhii/avesint-platform/internal/classify"
	"github.com/23Serhii/avesint-platform/internal/core/domain"
	"github.com/23Serhii/avesint-platform/internal/source"
)

const (
	sourceType   = "telegram"
	itemKind     = "text"
	itemLanguage = "ru"

	summaryFallbackRunes = 200
)

var allowedPriorities = map[string]struct{}{
	"low":      {},
	"medium":   {},
	"high":     {},
	"critical": {},
}

var youtubeRegex = regexp.MustCompile(`(?i)(https?://(?:www\.)?(?:youtube\.com|youtu\.be)/\S+)`)

// BuildInput bundles everything the payload builder needs. Now is the build
// invocation time and becomes item.parseDate.
type BuildInput struct {
	Identity       domain.SourceIdentity
	Message        domain.InboundMessage
	Classification classify.Result
	SourceCategory source.Category
	Now            time.Time
}

// Build assembles the canonical ingestion record. It is total: every input
// combination, including malformed classification fields, yields a fully
// formed payload. item.externalId is the idempotency key the backend
// deduplicates on; the pipeline itself performs no local dedup.
func Build(in BuildInput) backend.Payload {
	name := source.DisplayName(in.Identity, in.Message.Channel)
	permalink := channelPermalink(in.Identity.PublicHandle, in.Message.ID)
	publishedAt := in.Message.PublishedAt.UTC().Format(time.RFC3339)

	var mediaURL *string
	if in.Message.HasMedia && permalink != nil {
		mediaURL = permalink
	}

	meta := backend.Meta{
		Telegram: backend.TelegramMeta{
			Channel:     name,
			MessageID:   in.Message.ID,
			PublishedAt: publishedAt,
		},
		SourceCategory: string(in.SourceCategory),
		YouTubeURL:     youtubeRegex.FindString(in.Message.Text),
	}

	if mediaURL != nil && permalink != nil && *mediaURL != *permalink {
		meta.OriginalMediaURL = *mediaURL
	}

	return backend.Payload{
		Source: backend.SourcePayload{
			ExternalID: in.Identity.StableExternalID,
			Type:       sourceType,
			Name:       name,
			URL:        channelURL(in.Identity.PublicHandle),
			Category:   string(in.SourceCategory),
		},
		Item: backend.ItemPayload{
			ExternalID:  in.Identity.StableExternalID + ":msg:" + strconv.FormatInt(in.Message.ID, 10),
			Kind:        itemKind,
			Title:       nil,
			Content:     in.Message.Text,
			Summary:     coerceSummary(in.Classification.Summary, in.Message.Text),
			Language:    itemLanguage,
			Priority:    coercePriority(in.Classification.Priority),
			Type:        coerceEnum(in.Classification.Type, "info"),
			Category:    coerceEnum(in.Classification.Category, "infoop"),
			Tags:        coerceTags(in.Classification.Tags),
			Credibility: coerceCredibility(in.Classification.Credibility, in.SourceCategory),
			ParseDate:   in.Now.UTC().Format(time.RFC3339Nano),
			EventDate:   coerceEventDate(in.Classification.EventDate),
			RawURL:      permalink,
			MediaURL:    mediaURL,
			Meta:        meta,
		},
	}
}

// channelPermalink builds the t.me message link, but only when a public
// handle is known and not the unknown sentinel.
func channelPermalink(publicHandle string, messageID int64) *string {
	handle := source.NormalizeHandle(publicHandle)
	if handle == "" || handle == source.UnknownHandle {
		return nil
	}

	link := fmt.Sprintf("https://t.me/%s/%d", handle, messageID)

	return &link
}

func channelURL(publicHandle string) *string {
	handle := source.NormalizeHandle(publicHandle)
	if handle == "" || handle == source.UnknownHandle {
		return nil
	}

	link := "https://t.me/" + handle

	return &link
}

func coercePriority(priority string) string {
	if _, ok := allowedPriorities[priority]; ok {
		return priority
	}

	return "low"
}

func coerceEnum(value, fallback string) string {
	if value == "" {
		return fallback
	}

	return value
}

func coerceSummary(summary, text string) string {
	if summary != "" {
		return summary
	}

	runes := []rune(text)
	if len(runes) > summaryFallbackRunes {
		return string(runes[:summaryFallbackRunes])
	}

	return text
}

// coerceTags flattens the classification's tags value into a string slice.
// A non-sequence value is wrapped as a one-element sequence.
func coerceTags(tags any) []string {
	switch v := tags.(type) {
	case nil:
		return []string{}
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, t := range v {
			out = append(out, stringify(t))
		}

		return out
	default:
		return []string{stringify(v)}
	}
}

func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}

	return fmt.Sprint(v)
}

// coerceCredibility parses the classification's credibility as a float and
// falls back to the category default when it cannot.
func coerceCredibility(value any, sourceCategory source.Category) float64 {
	switch v := value.(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case string:
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return parsed
		}
	}

	return classify.DefaultCredibility(sourceCategory)
}

// coerceEventDate converts a parseable event date to UTC ISO-8601; anything
// else degrades to nil without raising.
func coerceEventDate(raw string) *string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}

	parsed, err := dateparse.ParseAny(trimmed)
	if err != nil {
		return nil
	}

	iso := parsed.UTC().Format(time.RFC3339)

	return &iso
}
