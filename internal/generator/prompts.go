package generator

import (
	"fmt"
	"strings"
	"time"

	"github.com/terraincognita07/prostranstvo/internal/tarot"
)

const systemPrompt = `Ты бережный проводник в пространстве самопознания. Пишешь по-русски, на «ты», тепло и спокойно.
Ты не предсказываешь будущее и не даёшь медицинских, юридических или финансовых советов.
Ты помогаешь человеку услышать себя. Без категоричности и запугивания. Лёгкие эмодзи уместны.`

var spreadPositions = map[tarot.Spread][]string{
	tarot.SpreadSingle:    {"совет"},
	tarot.SpreadTwoCard:   {"ситуация", "что поможет"},
	tarot.SpreadThreeCard: {"прошлое", "настоящее", "будущее"},
}

func buildDailyEnergyPrompt(now time.Time) string {
	var sb strings.Builder

	sb.WriteString("Составь «энергию дня» на ")
	sb.WriteString(now.Format("02.01.2006"))
	sb.WriteString(".\n\n")
	sb.WriteString(`Структура:
- короткий астрологический фон дня (2–3 предложения)
- карта дня из Старших Арканов и её мягкое значение
- один практический совет на день

Не больше 900 символов.`)

	return sb.String()
}

func buildTarotPrompt(question string, cards []string, spread tarot.Spread) string {
	var sb strings.Builder

	sb.WriteString("Сделай интерпретацию расклада Таро.\n\n")
	writeQuestion(&sb, question)
	writeCards(&sb, cards, spread)
	sb.WriteString(`Для каждой карты дай короткое значение в контексте вопроса, затем общий вывод и мягкий совет.
Не больше 1200 символов.`)

	return sb.String()
}

func buildOwnDeckPrompt(question string, cards []string, spread tarot.Spread) string {
	var sb strings.Builder

	sb.WriteString("Человек сам вытянул карты из своей колоды. Помоги их интерпретировать.\n\n")
	writeQuestion(&sb, question)
	writeCards(&sb, cards, spread)
	sb.WriteString(`Если название карты написано неточно, предположи наиболее близкую карту и скажи об этом.
Дай значение каждой карты в позиции, общий вывод и вопрос для размышления.
Не больше 1500 символов.`)

	return sb.String()
}

func buildDeepenPrompt(prior string) string {
	var sb strings.Builder

	sb.WriteString("Вот текст, который человек уже получил:\n\n")
	sb.WriteString(prior)
	sb.WriteString("\n\n")
	sb.WriteString(`Углуби интерпретацию: раскрой скрытые смыслы, возможные внутренние препятствия и ресурсы.
Предложи два-три вопроса для дневника. Не повторяй исходный текст. Не больше 1500 символов.`)

	return sb.String()
}

func writeQuestion(sb *strings.Builder, question string) {
	question = strings.TrimSpace(question)
	if question == "" {
		question = "общий вопрос о текущем моменте"
	}
	sb.WriteString("Вопрос: ")
	sb.WriteString(question)
	sb.WriteString("\n\n")
}

func writeCards(sb *strings.Builder, cards []string, spread tarot.Spread) {
	positions := spreadPositions[spread]
	sb.WriteString("Карты:\n")
	for index, card := range cards {
		if index < len(positions) {
			fmt.Fprintf(sb, "%d. %s (%s)\n", index+1, card, positions[index])
			continue
		}
		fmt.Fprintf(sb, "%d. %s\n", index+1, card)
	}
	sb.WriteString("\n")
}
