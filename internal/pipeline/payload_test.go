package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/23Serhii/avesint-platform/internal/classify"
	"github.com/23Serhii/avesint-platform/internal/core/domain"
	"github.com/23Serhii/avesint-platform/internal/source"
)

var buildNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func baseInput() BuildInput {
	ch := domain.ChannelDescriptor{Username: "testchan", Title: "Test Channel"}

	return BuildInput{
		Identity: source.Identity(ch),
		Message: domain.InboundMessage{
			ID:          42,
			Text:        "Колона техніки рухається на схід",
			PublishedAt: time.Date(2024, 3, 1, 11, 30, 0, 0, time.UTC),
			Channel:     ch,
		},
		Classification: classify.Result{
			Type:        "equipment_movement",
			Priority:    "high",
			Category:    "movement",
			Credibility: 0.8,
			Summary:     "Рух колони",
			EventDate:   "",
			Tags:        []string{"техніка"},
		},
		SourceCategory: source.CategoryOSINTTeam,
		Now:            buildNow,
	}
}

func TestBuildCanonicalPayload(t *testing.T) {
	p := Build(baseInput())

	assert.Equal(t, "telegram:handle:testchan", p.Source.ExternalID)
	assert.Equal(t, "telegram", p.Source.Type)
	assert.Equal(t, "testchan", p.Source.Name)
	require.NotNil(t, p.Source.URL)
	assert.Equal(t, "https://t.me/testchan", *p.Source.URL)
	assert.Equal(t, "osint-team", p.Source.Category)

	assert.Equal(t, "telegram:handle:testchan:msg:42", p.Item.ExternalID)
	assert.Equal(t, "text", p.Item.Kind)
	assert.Nil(t, p.Item.Title)
	assert.Equal(t, "Колона техніки рухається на схід", p.Item.Content)
	assert.Equal(t, "Рух колони", p.Item.Summary)
	assert.Equal(t, "ru", p.Item.Language)
	assert.Equal(t, "high", p.Item.Priority)
	assert.Equal(t, "equipment_movement", p.Item.Type)
	assert.Equal(t, "movement", p.Item.Category)
	assert.Equal(t, []string{"техніка"}, p.Item.Tags)
	assert.Equal(t, 0.8, p.Item.Credibility)
	assert.Equal(t, buildNow.Format(time.RFC3339Nano), p.Item.ParseDate)
	assert.Nil(t, p.Item.EventDate)

	require.NotNil(t, p.Item.RawURL)
	assert.Equal(t, "https://t.me/testchan/42", *p.Item.RawURL)
	assert.Nil(t, p.Item.MediaURL)

	assert.Equal(t, "testchan", p.Item.Meta.Telegram.Channel)
	assert.Equal(t, int64(42), p.Item.Meta.Telegram.MessageID)
	assert.Equal(t, "2024-03-01T11:30:00Z", p.Item.Meta.Telegram.PublishedAt)
	assert.Equal(t, "osint-team", p.Item.Meta.SourceCategory)
}

func TestBuildWithoutPublicHandle(t *testing.T) {
	in := baseInput()
	in.Message.Channel = domain.ChannelDescriptor{ChatID: 777, Title: "Private Feed"}
	in.Identity = source.Identity(in.Message.Channel)
	in.Message.HasMedia = true

	p := Build(in)

	assert.Equal(t, "telegram:chatid:777", p.Source.ExternalID)
	assert.Equal(t, "Private Feed", p.Source.Name)
	assert.Nil(t, p.Source.URL)

	// Without a public handle there is no permalink, so no media link either.
	assert.Nil(t, p.Item.RawURL)
	assert.Nil(t, p.Item.MediaURL)
}

func TestBuildMediaLink(t *testing.T) {
	in := baseInput()
	in.Message.HasMedia = true

	p := Build(in)

	require.NotNil(t, p.Item.MediaURL)
	assert.Equal(t, "https://t.me/testchan/42", *p.Item.MediaURL)
	assert.Empty(t, p.Item.Meta.OriginalMediaURL)
}

func TestBuildCoercesPriority(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"low", "low"},
		{"medium", "medium"},
		{"high", "high"},
		{"critical", "critical"},
		{"urgent", "low"},
		{"", "low"},
		{"HIGH", "low"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			in := baseInput()
			in.Classification.Priority = tt.in

			assert.Equal(t, tt.want, Build(in).Item.Priority)
		})
	}
}

func TestBuildCoercesCredibility(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		category source.Category
		want     float64
	}{
		{"float", 0.55, source.CategoryOfficial, 0.55},
		{"int", 1, source.CategoryOfficial, 1.0},
		{"numeric_string", "0.7", source.CategoryOfficial, 0.7},
		{"padded_numeric_string", " 0.7 ", source.CategoryOfficial, 0.7},
		{"garbage_string", "high", source.CategoryOfficial, 0.2},
		{"nil", nil, source.CategoryOfficial, 0.2},
		{"nil_enemy_prop", nil, source.CategoryEnemyProp, 0.1},
		{"garbage_enemy_prop", "??", source.CategoryEnemyProp, 0.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := baseInput()
			in.Classification.Credibility = tt.value
			in.SourceCategory = tt.category

			assert.Equal(t, tt.want, Build(in).Item.Credibility)
		})
	}
}

func TestBuildCoercesTags(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  []string
	}{
		{"nil_becomes_empty", nil, []string{}},
		{"string_slice_passthrough", []string{"a", "b"}, []string{"a", "b"}},
		{"mixed_sequence_stringified", []any{"a", float64(1), true}, []string{"a", "1", "true"}},
		{"scalar_wrapped", "solo", []string{"solo"}},
		{"number_wrapped", float64(3), []string{"3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := baseInput()
			in.Classification.Tags = tt.value

			assert.Equal(t, tt.want, Build(in).Item.Tags)
		})
	}
}

func TestBuildCoercesEventDate(t *testing.T) {
	in := baseInput()
	in.Classification.EventDate = "2024-03-01T10:00:00+02:00"

	p := Build(in)

	require.NotNil(t, p.Item.EventDate)
	assert.Equal(t, "2024-03-01T08:00:00Z", *p.Item.EventDate)

	in.Classification.EventDate = "не дата"
	assert.Nil(t, Build(in).Item.EventDate)

	in.Classification.EventDate = "  "
	assert.Nil(t, Build(in).Item.EventDate)
}

func TestBuildSummaryFallback(t *testing.T) {
	in := baseInput()
	in.Classification.Summary = ""

	p := Build(in)

	assert.Equal(t, in.Message.Text, p.Item.Summary)

	long := make([]rune, 0, 300)
	for i := 0; i < 300; i++ {
		long = append(long, 'ж')
	}

	in.Message.Text = string(long)
	p = Build(in)

	// The builder-side fallback truncates without an ellipsis.
	assert.Equal(t, string(long[:200]), p.Item.Summary)
}

func TestBuildExtractsYouTubeURL(t *testing.T) {
	in := baseInput()
	in.Message.Text = "Відео тут: https://youtu.be/abc123 дивіться"

	p := Build(in)

	assert.Equal(t, "https://youtu.be/abc123", p.Item.Meta.YouTubeURL)

	in.Message.Text = "без посилань"
	assert.Empty(t, Build(in).Item.Meta.YouTubeURL)
}
