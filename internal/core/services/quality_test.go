package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQualityScore(t *testing.T) {
	longClean := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 5)

	tests := []struct {
		name       string
		text       string
		confidence float64
		wantScore  int
		wantReview bool
	}{
		{
			name:       "clean long text high confidence",
			text:       longClean,
			confidence: 0.95,
			wantScore:  100,
			wantReview: false,
		},
		{
			name:       "short text penalised",
			text:       "Invoice #42",
			confidence: 0.95,
			wantScore:  70,
			wantReview: false,
		},
		{
			name:       "medium text mildly penalised",
			text:       strings.Repeat("word ", 15), // 75 runes
			confidence: 0.95,
			wantScore:  85,
			wantReview: false,
		},
		{
			name:       "low confidence penalised",
			text:       longClean,
			confidence: 0.3,
			wantScore:  80,
			wantReview: false,
		},
		{
			name:       "mid confidence mildly penalised",
			text:       longClean,
			confidence: 0.6,
			wantScore:  90,
			wantReview: false,
		},
		{
			name:       "short and low confidence needs review",
			text:       "short",
			confidence: 0.3,
			wantScore:  50,
			wantReview: true,
		},
		{
			name:       "empty text",
			text:       "",
			confidence: 0.95,
			wantScore:  70,
			wantReview: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, review := QualityScore(tt.text, tt.confidence)
			assert.Equal(t, tt.wantScore, score)
			assert.Equal(t, tt.wantReview, review)
		})
	}
}

func TestQualityScore_GarbagePenalty(t *testing.T) {
	// Over 50% unusual characters plus the short-text penalty.
	garbage := strings.Repeat("\x01\x02\x03", 10)
	score, review := QualityScore(garbage, 0.95)
	assert.Equal(t, 20, score)
	assert.True(t, review)
}

func TestQualityScore_CJKTextIsNotGarbage(t *testing.T) {
	text := strings.Repeat("本合同由甲方与乙方于二〇二四年三月签订，双方同意以下条款。", 5)
	score, review := QualityScore(text, 0.95)
	assert.Equal(t, 100, score)
	assert.False(t, review)
}

func TestShouldUseOCR(t *testing.T) {
	healthy := strings.Repeat("A perfectly ordinary sentence with content. ", 10)

	t.Run("healthy direct text", func(t *testing.T) {
		need, _ := ShouldUseOCR(healthy, 1)
		assert.False(t, need)
	})

	t.Run("empty text triggers", func(t *testing.T) {
		need, reason := ShouldUseOCR("   \n\t  ", 3)
		assert.True(t, need)
		assert.Contains(t, reason, "empty")
	})

	t.Run("low density triggers", func(t *testing.T) {
		need, reason := ShouldUseOCR("page header only", 10)
		assert.True(t, need)
		assert.Contains(t, reason, "density")
	})

	t.Run("whitespace flood triggers", func(t *testing.T) {
		text := "ab" + strings.Repeat(" \n", 300)
		need, reason := ShouldUseOCR(text, 0)
		assert.True(t, need)
		assert.Contains(t, reason, "whitespace")
	})

	t.Run("garbage flood triggers", func(t *testing.T) {
		text := strings.Repeat("\x01\x02", 150) + healthy
		need, reason := ShouldUseOCR(text, 1)
		assert.True(t, need)
		assert.Contains(t, reason, "garbage")
	})

	t.Run("zero page count skips density check", func(t *testing.T) {
		need, _ := ShouldUseOCR(healthy, 0)
		assert.False(t, need)
	})
}
