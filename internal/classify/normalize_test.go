package classify

import "testing"

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "slang_with_military_context_rewritten",
			in:   "Хлопчики тримають позиції під обстрілом",
			want: "військові тримають позиції під обстрілом",
		},
		{
			name: "slang_without_military_context_untouched",
			in:   "Хлопчики грають у футбол у дворі",
			want: "Хлопчики грають у футбол у дворі",
		},
		{
			name: "explicit_child_marker_blocks_rewrite",
			in:   "Хлопчики та діти ховалися від обстрілу",
			want: "Хлопчики та діти ховалися від обстрілу",
		},
		{
			name: "russian_slang_form",
			in:   "Мальчики отработали по позиции ЗСУ",
			want: "військові отработали по позиции ЗСУ",
		},
		{
			name: "inflected_slang_form",
			in:   "Подяка хлопчикам за штурм",
			want: "Подяка військові за штурм",
		},
		{
			name: "context_token_must_be_exact",
			in:   "Хлопчики бачили військових на вулиці",
			want: "Хлопчики бачили військових на вулиці",
		},
		{
			name: "military_context_without_slang_untouched",
			in:   "ЗСУ відбили штурм на сході",
			want: "ЗСУ відбили штурм на сході",
		},
		{
			name: "latin_context_token",
			in:   "Хлопчики збили fpv над дорогою",
			want: "військові збили fpv над дорогою",
		},
		{
			name: "whitespace_trimmed",
			in:   "  просто текст  ",
			want: "просто текст",
		},
		{
			name: "empty",
			in:   "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeText(tt.in); got != tt.want {
				t.Errorf("NormalizeText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
