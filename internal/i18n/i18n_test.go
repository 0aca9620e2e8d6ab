package i18n

import (
	"context"
	"testing"
)

func initLang(t *testing.T, lang string) context.Context {
	t.Helper()
	if err := Init("de"); err != nil {
		t.Fatalf("Init: %v", err)
	}
	loc := NewLocalizer(lang)
	return WithLocalizer(context.Background(), loc)
}

func TestTranslateGerman(t *testing.T) {
	ctx := initLang(t, "de")

	if got := T(ctx, "AppTitle"); got != "Lernbüro" {
		t.Errorf("T(AppTitle) = %q, want 'Lernbüro'", got)
	}
	if got := T(ctx, "EventComplete"); got != "Abschließen" {
		t.Errorf("T(EventComplete) = %q, want 'Abschließen'", got)
	}
}

func TestTranslateEnglish(t *testing.T) {
	ctx := initLang(t, "en")

	if got := T(ctx, "StateLocked"); got != "locked" {
		t.Errorf("T(StateLocked) = %q, want 'locked'", got)
	}
}

func TestAcceptLanguageFallback(t *testing.T) {
	ctx := initLang(t, "fr-FR,fr;q=0.9")

	if got := T(ctx, "Logout"); got != "Abmelden" {
		t.Errorf("T(Logout) = %q, want German fallback 'Abmelden'", got)
	}
	if got := Language(ctx); got != "de" {
		t.Errorf("Language() = %q, want de", got)
	}
	if got := Language(initLang(t, "en-US,en;q=0.8")); got != "en" {
		t.Errorf("Language() = %q, want en", got)
	}
}

func TestGradeLabels(t *testing.T) {
	ctx := initLang(t, "de")

	tests := []struct {
		grade int
		want  string
	}{
		{1, "1 (Sehr gut)"},
		{2, "2 (Gut)"},
		{3, "3 (Befriedigend)"},
		{4, "4 (Ausreichend)"},
		{5, "5 (Mangelhaft)"},
		{6, "6 (Ungenügend)"},
	}
	for _, tt := range tests {
		if got := GradeLabel(ctx, tt.grade); got != tt.want {
			t.Errorf("GradeLabel(%d) = %q, want %q", tt.grade, got, tt.want)
		}
	}
}

func TestLevelAndRequestLabels(t *testing.T) {
	ctx := initLang(t, "de")

	if got := GraduationLevelLabel(ctx, 3); got != "Lernprofi" {
		t.Errorf("GraduationLevelLabel(3) = %q, want 'Lernprofi'", got)
	}
	if got := RequestLabel(ctx, "attestation"); got != "Gelingensnachweis" {
		t.Errorf("RequestLabel(attestation) = %q, want 'Gelingensnachweis'", got)
	}
	if got := RequestLabel(ctx, ""); got != "" {
		t.Errorf("RequestLabel(\"\") = %q, want empty", got)
	}
}

func TestPluralTranslation(t *testing.T) {
	ctx := initLang(t, "en")

	if got := Tp(ctx, "StudentCount", 1); got != "1 student" {
		t.Errorf("Tp(StudentCount, 1) = %q, want '1 student'", got)
	}
	if got := Tp(ctx, "StudentCount", 5); got != "5 students" {
		t.Errorf("Tp(StudentCount, 5) = %q, want '5 students'", got)
	}
}

func TestTemplateDataTranslation(t *testing.T) {
	ctx := initLang(t, "de")

	got := Td(ctx, "WeekOf", map[string]any{"Year": "2025/26", "Week": 12, "Count": 40})
	if got != "Schuljahr 2025/26: Woche 12 von 40" {
		t.Errorf("Td(WeekOf) = %q", got)
	}
}

func TestMissingKey(t *testing.T) {
	ctx := initLang(t, "en")

	if got := T(ctx, "NonExistentKey"); got != "NonExistentKey" {
		t.Errorf("T(NonExistentKey) = %q, want 'NonExistentKey'", got)
	}
}
