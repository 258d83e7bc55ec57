// Package resolver сопоставляет введенное пользователем имя комнаты
// с ближайшим существующим, чтобы опечатки не плодили осиротевшие комнаты.
package resolver

import (
	"strings"

	"github.com/thereayou/globalchat/internal/models"
)

const (
	wordScoreWeight = 0.7
	charScoreWeight = 0.3

	acceptScore      = 0.5
	fallbackCutoff   = 0.6
	wordSimThreshold = 0.8
)

// Resolve подбирает ближайшее имя из names.
// Ярусы по порядку, первый успех побеждает: точное совпадение,
// пословный скоринг, редакционное расстояние по всему имени, инициалы.
func Resolve(input string, names []string) (string, bool) {
	normalized := models.NormalizeName(input)
	if normalized == "" || len(names) == 0 {
		return "", false
	}

	for _, name := range names {
		if models.NormalizeName(name) == normalized {
			return name, true
		}
	}

	if name, ok := bestWordMatch(normalized, names); ok {
		return name, true
	}

	if name, ok := bestDistanceMatch(normalized, names); ok {
		return name, true
	}

	if name, ok := initialsMatch(normalized, names); ok {
		return name, true
	}

	return "", false
}

// bestWordMatch — пословный скоринг, комбинированный с покрытием символов
func bestWordMatch(input string, names []string) (string, bool) {
	inputWords := strings.Fields(input)
	if len(inputWords) == 0 {
		return "", false
	}

	best := ""
	bestScore := 0.0

	for _, name := range names {
		nameWords := strings.Fields(models.NormalizeName(name))
		if len(nameWords) == 0 {
			continue
		}

		total := 0.0
		for _, iw := range inputWords {
			total += scoreWord(iw, nameWords)
		}
		wordScore := total / float64(len(inputWords))
		charScore := charCoverage(input, models.NormalizeName(name))

		score := wordScoreWeight*wordScore + charScoreWeight*charScore
		if score > bestScore {
			bestScore = score
			best = name
		}
	}

	if bestScore >= acceptScore {
		return best, true
	}
	return "", false
}

// scoreWord — лучшая оценка слова ввода против слов имени:
// точное 1.0, префикс 0.8, вхождение 0.6, близость по расстоянию ×0.9
func scoreWord(iw string, nameWords []string) float64 {
	best := 0.0
	for _, nw := range nameWords {
		var s float64
		switch {
		case iw == nw:
			s = 1.0
		case len(iw) >= 2 && strings.HasPrefix(nw, iw):
			s = 0.8
		case len(iw) >= 3 && strings.Contains(nw, iw):
			s = 0.6
		case len(iw) >= 4:
			if sim := similarity(iw, nw); sim >= wordSimThreshold {
				s = sim * 0.9
			}
		}
		if s > best {
			best = s
		}
	}
	return best
}

// charCoverage — доля символов ввода, найденных в кандидате
func charCoverage(input, name string) float64 {
	counts := make(map[rune]int)
	for _, r := range name {
		if r != ' ' {
			counts[r]++
		}
	}

	total, found := 0, 0
	for _, r := range input {
		if r == ' ' {
			continue
		}
		total++
		if counts[r] > 0 {
			counts[r]--
			found++
		}
	}

	if total == 0 {
		return 0
	}
	return float64(found) / float64(total)
}

// bestDistanceMatch — запасное сравнение по всему имени
func bestDistanceMatch(input string, names []string) (string, bool) {
	best := ""
	bestSim := 0.0

	for _, name := range names {
		if sim := similarity(input, models.NormalizeName(name)); sim > bestSim {
			bestSim = sim
			best = name
		}
	}

	if bestSim >= fallbackCutoff {
		return best, true
	}
	return "", false
}

// initialsMatch — совпадение с аббревиатурой из первых букв слов имени
func initialsMatch(input string, names []string) (string, bool) {
	compact := strings.ReplaceAll(input, " ", "")
	if len(compact) < 2 {
		return "", false
	}

	for _, name := range names {
		var initials strings.Builder
		for _, w := range strings.Fields(models.NormalizeName(name)) {
			r := []rune(w)
			initials.WriteRune(r[0])
		}
		if initials.String() == compact {
			return name, true
		}
	}
	return "", false
}

func similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	la, lb := len([]rune(a)), len([]rune(b))
	if la == 0 || lb == 0 {
		return 0
	}
	max := la
	if lb > max {
		max = lb
	}
	return 1.0 - float64(levenshtein(a, b))/float64(max)
}

func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)

	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min3(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[len(rb)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
