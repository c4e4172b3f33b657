package ocr

import (
	"sort"
	"strings"
	"unicode"

	"vlocr/internal/model"
)

// Languages reported by the detector.
const (
	LangEnglish    = "en"
	LangSpanish    = "es"
	LangFrench     = "fr"
	LangGerman     = "de"
	LangItalian    = "it"
	LangPortuguese = "pt"
	LangRussian    = "ru"
	LangChinese    = "zh"
	LangJapanese   = "ja"
	LangKorean     = "ko"
	LangArabic     = "ar"
	LangHindi      = "hi"
	LangUnknown    = "unknown"
)

// Scripts reported by the detector.
const (
	ScriptLatin      = "latin"
	ScriptCyrillic   = "cyrillic"
	ScriptCJK        = "cjk"
	ScriptJapanese   = "japanese"
	ScriptHangul     = "hangul"
	ScriptArabic     = "arabic"
	ScriptDevanagari = "devanagari"
	ScriptUnknown    = "unknown"
)

// LanguageDetector identifies the dominant language of recognized text.
// Non-Latin scripts map directly to a language; Latin text is scored by
// stopword frequency across the supported European languages.
type LanguageDetector struct {
	stopwords map[string][]string
}

// NewLanguageDetector creates a LanguageDetector.
func NewLanguageDetector() *LanguageDetector {
	return &LanguageDetector{stopwords: map[string][]string{
		LangEnglish:    {"the", "and", "is", "of", "to", "in", "that", "for", "with", "this", "are", "was"},
		LangSpanish:    {"el", "la", "de", "que", "los", "las", "una", "por", "con", "para", "es", "del"},
		LangFrench:     {"le", "la", "les", "des", "est", "dans", "pour", "que", "une", "sur", "avec", "par"},
		LangGerman:     {"der", "die", "das", "und", "ist", "ein", "eine", "den", "mit", "für", "auf", "nicht"},
		LangItalian:    {"il", "di", "che", "la", "per", "una", "sono", "con", "del", "gli", "nel", "della"},
		LangPortuguese: {"o", "a", "de", "que", "do", "da", "em", "um", "uma", "para", "com", "não"},
	}}
}

// Detect returns the primary language, a confidence, the detected script and
// any secondary languages whose score is close to the winner's.
func (d *LanguageDetector) Detect(text string) model.LanguageDetection {
	result := model.LanguageDetection{
		PrimaryLanguage: LangUnknown,
		ScriptDetected:  ScriptUnknown,
	}
	if strings.TrimSpace(text) == "" {
		return result
	}

	script := detectScript(text)
	result.ScriptDetected = script

	switch script {
	case ScriptCyrillic:
		result.PrimaryLanguage = LangRussian
		result.Confidence = 0.9
	case ScriptCJK:
		result.PrimaryLanguage = LangChinese
		result.Confidence = 0.9
	case ScriptJapanese:
		result.PrimaryLanguage = LangJapanese
		result.Confidence = 0.9
	case ScriptHangul:
		result.PrimaryLanguage = LangKorean
		result.Confidence = 0.9
	case ScriptArabic:
		result.PrimaryLanguage = LangArabic
		result.Confidence = 0.9
	case ScriptDevanagari:
		result.PrimaryLanguage = LangHindi
		result.Confidence = 0.9
	case ScriptLatin:
		d.scoreLatin(text, &result)
	}
	return result
}

// scoreLatin ranks Latin-script languages by stopword hit rate.
func (d *LanguageDetector) scoreLatin(text string, result *model.LanguageDetection) {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	if len(words) == 0 {
		return
	}

	scores := make(map[string]float64, len(d.stopwords))
	for lang, stops := range d.stopwords {
		set := make(map[string]struct{}, len(stops))
		for _, s := range stops {
			set[s] = struct{}{}
		}
		hits := 0
		for _, w := range words {
			if _, ok := set[w]; ok {
				hits++
			}
		}
		scores[lang] = float64(hits) / float64(len(words))
	}

	type ranked struct {
		lang  string
		score float64
	}
	order := make([]ranked, 0, len(scores))
	for lang, s := range scores {
		order = append(order, ranked{lang, s})
	}
	sort.Slice(order, func(i, j int) bool {
		if order[i].score != order[j].score {
			return order[i].score > order[j].score
		}
		return order[i].lang < order[j].lang
	})

	best := order[0]
	if best.score == 0 {
		// Latin script but no stopword hits; default to English with low confidence.
		result.PrimaryLanguage = LangEnglish
		result.Confidence = 0.3
		return
	}

	result.PrimaryLanguage = best.lang
	result.Confidence = minFloat(0.95, 0.4+best.score*4)

	for _, r := range order[1:] {
		if r.score > 0 && r.score >= best.score*0.5 {
			result.SecondaryLanguages = append(result.SecondaryLanguages, r.lang)
		}
	}
	result.IsMultilingual = len(result.SecondaryLanguages) > 0
}

// detectScript counts letters per Unicode range and returns the dominant
// script. Japanese wins over plain CJK when kana are present.
func detectScript(text string) string {
	var latin, cyrillic, cjk, kana, hangul, arabic, devanagari, total int

	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}
		total++
		switch {
		case unicode.Is(unicode.Latin, r):
			latin++
		case unicode.Is(unicode.Cyrillic, r):
			cyrillic++
		case unicode.Is(unicode.Hiragana, r) || unicode.Is(unicode.Katakana, r):
			kana++
		case unicode.Is(unicode.Han, r):
			cjk++
		case unicode.Is(unicode.Hangul, r):
			hangul++
		case unicode.Is(unicode.Arabic, r):
			arabic++
		case unicode.Is(unicode.Devanagari, r):
			devanagari++
		}
	}
	if total == 0 {
		return ScriptUnknown
	}

	if kana > 0 && (kana+cjk) > total/4 {
		return ScriptJapanese
	}

	best, bestCount := ScriptUnknown, 0
	for _, s := range []struct {
		name  string
		count int
	}{
		{ScriptLatin, latin},
		{ScriptCyrillic, cyrillic},
		{ScriptCJK, cjk},
		{ScriptHangul, hangul},
		{ScriptArabic, arabic},
		{ScriptDevanagari, devanagari},
	} {
		if s.count > bestCount {
			best, bestCount = s.name, s.count
		}
	}
	return best
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
