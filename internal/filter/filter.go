package filter

import (
	"regexp"
	"strings"
	"sync"
)

// Детекция ссылок сознательно избыточна: ложные срабатывания
// на текст, похожий на домен, допустимы — лучше заблокировать лишнее.
var urlPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bhttps?://\S+`),
	regexp.MustCompile(`(?i)\bwww\.[a-z0-9-]+\.[a-z]{2,}\S*`),
	regexp.MustCompile(`(?i)\b[a-z0-9-]+\.[a-z]{2,}/\S+`),
	regexp.MustCompile(`(?i)\b[a-z0-9-]+\.(?:com|net|org|gg|io|ru|me|tv|xyz|app|dev|co|info|shop|store)\b`),
	regexp.MustCompile(`(?i)\b(?:discord\.gg|bit\.ly|t\.co|youtu\.be)\b\S*`),
}

// DefaultBlockedWords — стартовый блок-лист
var DefaultBlockedWords = []string{
	"free nitro",
	"steam gift",
	"airdrop",
	"казино",
	"бесплатный нитро",
}

// Filter — проверки контента без побочных эффектов.
// Блок-лист изменяем во время работы.
type Filter struct {
	mu    sync.RWMutex
	words []string
}

func NewFilter(words ...string) *Filter {
	if words == nil {
		words = append(words, DefaultBlockedWords...)
	}
	return &Filter{words: words}
}

// ContainsBlockedContent — регистронезависимый поиск подстроки.
// Границы слов не учитываются: "scam" найдется внутри "scammer".
func (f *Filter) ContainsBlockedContent(text string) bool {
	lower := strings.ToLower(text)

	f.mu.RLock()
	defer f.mu.RUnlock()

	for _, word := range f.words {
		if word != "" && strings.Contains(lower, strings.ToLower(word)) {
			return true
		}
	}
	return false
}

// ContainsURL проверяет текст по всем шаблонам ссылок
func (f *Filter) ContainsURL(text string) bool {
	for _, re := range urlPatterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

func (f *Filter) AddWord(word string) {
	word = strings.ToLower(strings.TrimSpace(word))
	if word == "" {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	for _, w := range f.words {
		if w == word {
			return
		}
	}
	f.words = append(f.words, word)
}

func (f *Filter) RemoveWord(word string) bool {
	word = strings.ToLower(strings.TrimSpace(word))

	f.mu.Lock()
	defer f.mu.Unlock()

	for i, w := range f.words {
		if w == word {
			f.words = append(f.words[:i], f.words[i+1:]...)
			return true
		}
	}
	return false
}

// Words возвращает копию текущего блок-листа
func (f *Filter) Words() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]string, len(f.words))
	copy(out, f.words)
	return out
}
