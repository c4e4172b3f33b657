package ocr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectEnglish(t *testing.T) {
	text := "The quick brown fox is jumping over the lazy dog and this is fine for the test."

	got := NewLanguageDetector().Detect(text)

	assert.Equal(t, LangEnglish, got.PrimaryLanguage)
	assert.Equal(t, ScriptLatin, got.ScriptDetected)
	assert.Greater(t, got.Confidence, 0.4)
}

func TestDetectSpanish(t *testing.T) {
	text := "El perro corre por la calle con los gatos para jugar en el parque del barrio."

	got := NewLanguageDetector().Detect(text)

	assert.Equal(t, LangSpanish, got.PrimaryLanguage)
	assert.Equal(t, ScriptLatin, got.ScriptDetected)
}

func TestDetectNonLatinScripts(t *testing.T) {
	cases := []struct {
		name   string
		text   string
		lang   string
		script string
	}{
		{"russian", "Привет мир, это тестовый документ на русском языке", LangRussian, ScriptCyrillic},
		{"chinese", "这是一份中文测试文件，用于识别语言", LangChinese, ScriptCJK},
		{"japanese", "これは日本語のテスト文書です", LangJapanese, ScriptJapanese},
		{"korean", "이것은 한국어 테스트 문서입니다", LangKorean, ScriptHangul},
		{"arabic", "هذه وثيقة اختبار باللغة العربية", LangArabic, ScriptArabic},
		{"hindi", "यह हिंदी में एक परीक्षण दस्तावेज़ है", LangHindi, ScriptDevanagari},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := NewLanguageDetector().Detect(tc.text)
			assert.Equal(t, tc.lang, got.PrimaryLanguage)
			assert.Equal(t, tc.script, got.ScriptDetected)
			assert.InDelta(t, 0.9, got.Confidence, 0.001)
		})
	}
}

func TestDetectEmptyText(t *testing.T) {
	got := NewLanguageDetector().Detect("  \n ")

	assert.Equal(t, LangUnknown, got.PrimaryLanguage)
	assert.Equal(t, ScriptUnknown, got.ScriptDetected)
	assert.Zero(t, got.Confidence)
}

func TestDetectLatinWithoutStopwords(t *testing.T) {
	got := NewLanguageDetector().Detect("xylophone quartz vortex")

	assert.Equal(t, LangEnglish, got.PrimaryLanguage)
	assert.InDelta(t, 0.3, got.Confidence, 0.001)
}

func TestDetectNumbersOnly(t *testing.T) {
	got := NewLanguageDetector().Detect("12345 67890")

	assert.Equal(t, ScriptUnknown, got.ScriptDetected)
	assert.Equal(t, LangUnknown, got.PrimaryLanguage)
}
