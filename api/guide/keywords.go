package guide

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// DefaultKeywordLimit applies when ExtractKeywords gets a non-positive limit.
const DefaultKeywordLimit = 8

// grammarBias is added to the frequency of curated grammar terms.
const grammarBias = 5

var wordRe = regexp.MustCompile(`\p{L}[\p{L}\p{M}']*`)

var grammarTerms = toSet(
	"present", "past", "future", "perfect", "simple", "continuous", "progressive",
	"tense", "tenses", "verb", "verbs", "noun", "nouns", "adjective", "adjectives",
	"adverb", "adverbs", "pronoun", "pronouns", "preposition", "prepositions",
	"article", "articles", "conditional", "conditionals", "passive", "active",
	"modal", "modals", "auxiliary", "participle", "gerund", "infinitive",
	"clause", "clauses", "subject", "object", "comparative", "superlative",
	"phrasal", "irregular", "regular", "plural", "singular", "possessive",
	"countable", "uncountable", "quantifier", "quantifiers", "determiner",
	"conjunction", "conjunctions", "reported", "speech", "question", "tags",
	"grammar", "vocabulary", "pronunciation", "spelling", "idiom", "idioms",
)

var stopwords = toSet(
	// English
	"the", "and", "for", "are", "but", "not", "you", "all", "any", "can", "had",
	"her", "was", "one", "our", "out", "has", "have", "him", "his", "how", "its",
	"let", "may", "who", "did", "get", "got", "she", "too", "use", "used", "that",
	"this", "with", "from", "they", "them", "then", "than", "there", "their",
	"these", "those", "what", "when", "where", "which", "while", "will", "would",
	"should", "could", "been", "being", "were", "your", "yours", "into", "onto",
	"about", "after", "before", "also", "just", "only", "some", "such", "very",
	"more", "most", "much", "many", "each", "other", "over", "under", "again",
	"here", "does", "doing", "done", "because", "both", "between", "through",
	"during", "until", "why", "own", "same", "off", "yet", "nor", "shall",
	"might", "must", "i'm", "it's", "don't", "doesn't", "isn't", "aren't",
	"example", "examples",
	// Spanish
	"que", "los", "las", "del", "una", "uno", "unos", "unas", "por", "para",
	"con", "sin", "sobre", "entre", "como", "más", "pero", "sus", "les", "este",
	"esta", "estos", "estas", "ese", "esa", "esos", "esas", "aquel", "aquella",
	"son", "ser", "está", "están", "estar", "hay", "fue", "era", "sea", "muy",
	"también", "cuando", "donde", "dónde", "porque", "qué", "cómo", "cual",
	"cuál", "cuales", "todo", "todos", "toda", "todas", "otro", "otra", "otros",
	"otras", "mismo", "misma", "nos", "nuestro", "nuestra", "usted", "ustedes",
	"ella", "ellos", "ellas", "ejemplo", "ejemplos", "puede", "pueden", "cada",
	"desde", "hasta", "según", "tiene", "tienen", "hace", "hacer", "algo", "solo",
	"sólo", "aquí", "allí", "así", "bien", "tus", "mis", "sí",
)

func toSet(words ...string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

// ExtractKeywords ranks the words of text by frequency, with a bias for
// English grammar terminology, and returns up to limit of them. Ties keep
// first-occurrence order, so the result is deterministic.
func ExtractKeywords(text string, limit int) []Keyword {
	if limit <= 0 {
		limit = DefaultKeywordLimit
	}

	type term struct {
		word  string
		score int
		first int
	}
	terms := map[string]*term{}
	var order []*term
	for _, raw := range wordRe.FindAllString(strings.ToLower(text), -1) {
		word := strings.Trim(raw, "'")
		if utf8.RuneCountInString(word) < 3 || stopwords[word] {
			continue
		}
		t, ok := terms[word]
		if !ok {
			t = &term{word: word, first: len(order)}
			if grammarTerms[word] {
				t.score = grammarBias
			}
			terms[word] = t
			order = append(order, t)
		}
		t.score++
	}

	sort.SliceStable(order, func(i, j int) bool {
		if order[i].score != order[j].score {
			return order[i].score > order[j].score
		}
		return order[i].first < order[j].first
	})

	if len(order) > limit {
		order = order[:limit]
	}
	out := make([]Keyword, 0, len(order))
	for _, t := range order {
		out = append(out, Keyword{Word: t.word})
	}
	return out
}
