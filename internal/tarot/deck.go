package tarot

import (
	"math/rand/v2"
	"strings"
)

var majorArcana = []string{
	"Шут", "Маг", "Верховная Жрица", "Императрица", "Император", "Иерофант",
	"Влюблённые", "Колесница", "Сила", "Отшельник", "Колесо Фортуны",
	"Справедливость", "Повешенный", "Смерть", "Умеренность", "Дьявол",
	"Башня", "Звезда", "Луна", "Солнце", "Суд", "Мир",
}

var suits = []string{"Жезлы", "Кубки", "Мечи", "Пентакли"}

var ranks = []string{
	"Туз", "Двойка", "Тройка", "Четвёрка", "Пятёрка", "Шестёрка", "Семёрка",
	"Восьмёрка", "Девятка", "Десятка", "Паж", "Рыцарь", "Королева", "Король",
}

var deck = buildDeck()

func buildDeck() []string {
	cards := make([]string, 0, len(majorArcana)+len(suits)*len(ranks))
	cards = append(cards, majorArcana...)
	for _, suit := range suits {
		for _, rank := range ranks {
			cards = append(cards, rank+" "+suit)
		}
	}
	return cards
}

// AllCards returns a copy of the 78-card catalog in deck order.
func AllCards() []string {
	cards := make([]string, len(deck))
	copy(cards, deck)
	return cards
}

type Match struct {
	Exact      string
	Candidates []string
}

func (match Match) Found() bool {
	return match.Exact != "" || len(match.Candidates) > 0
}

// Find resolves a user-typed card name. An exact case-insensitive match wins;
// otherwise every card containing the fragment is a candidate.
func Find(fragment string) Match {
	normalized := normalizeName(fragment)
	if normalized == "" {
		return Match{}
	}

	candidates := make([]string, 0)
	for _, card := range deck {
		name := normalizeName(card)
		if name == normalized {
			return Match{Exact: card}
		}
		if strings.Contains(name, normalized) {
			candidates = append(candidates, card)
		}
	}
	return Match{Candidates: candidates}
}

// Draw picks n distinct cards. n is clamped to the deck size.
func Draw(rng *rand.Rand, n int) []string {
	if n <= 0 {
		return nil
	}
	if n > len(deck) {
		n = len(deck)
	}
	shuffled := AllCards()
	shuffle := rand.Shuffle
	if rng != nil {
		shuffle = rng.Shuffle
	}
	shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled[:n]
}

func normalizeName(value string) string {
	return strings.Join(strings.Fields(strings.ToLower(value)), " ")
}
