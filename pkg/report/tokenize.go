package report

import (
	"strings"
	"unicode"
)

// Function words excluded from the frequency tables. Single-rune entries
// also act as separators inside Han runs, so "医美的维权" splits into
// "医美" and "维权" instead of producing bigrams across the particle.
var (
	singleRuneStopwords = map[rune]bool{
		'的': true, '了': true, '和': true, '是': true, '就': true,
		'都': true, '而': true, '及': true, '与': true, '这': true,
		'那': true, '你': true, '我': true, '他': true, '们': true,
		'会': true, '过': true,
	}

	stopwords = map[string]bool{
		"可以": true, "还是": true, "还有": true, "只是": true, "但是": true,
		"就是": true, "这个": true, "那个": true, "一个": true, "现在": true,
		"因为": true, "所以": true, "如果": true, "已经": true, "不是": true,
		"这样": true, "那样": true, "这些": true, "那些": true, "怎么": true,
		"什么": true, "为什么": true, "怎么样": true, "这么": true, "那么": true,
		"一些": true, "有些": true,
	}
)

// Tokenize splits mixed Chinese and Latin text into countable terms.
// Han runs are broken at single-rune stopwords and emitted as overlapping
// bigrams; Latin and digit runs become lowercased words. Terms shorter
// than two runes and stopwords are dropped.
func Tokenize(text string) []string {
	var tokens []string

	var han, word []rune
	flushHan := func() {
		tokens = append(tokens, hanBigrams(han)...)
		han = han[:0]
	}
	flushWord := func() {
		if len(word) >= 2 {
			tokens = append(tokens, strings.ToLower(string(word)))
		}
		word = word[:0]
	}

	for _, r := range text {
		switch {
		case unicode.Is(unicode.Han, r):
			flushWord()
			if singleRuneStopwords[r] {
				flushHan()
				continue
			}
			han = append(han, r)
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			flushHan()
			word = append(word, r)
		default:
			flushHan()
			flushWord()
		}
	}
	flushHan()
	flushWord()

	return tokens
}

// hanBigrams emits every overlapping two-rune window of a Han run, minus
// stopwords. A two-rune run yields itself.
func hanBigrams(run []rune) []string {
	if len(run) < 2 {
		return nil
	}
	grams := make([]string, 0, len(run)-1)
	for i := 0; i+1 < len(run); i++ {
		gram := string(run[i : i+2])
		if stopwords[gram] {
			continue
		}
		grams = append(grams, gram)
	}
	return grams
}
