package tarot

import "fmt"

type Spread string

const (
	SpreadSingle    Spread = "single"
	SpreadTwoCard   Spread = "two_card"
	SpreadThreeCard Spread = "three_card"
)

func (spread Spread) Count() int {
	switch spread {
	case SpreadSingle:
		return 1
	case SpreadTwoCard:
		return 2
	case SpreadThreeCard:
		return 3
	default:
		return 0
	}
}

func (spread Spread) Valid() bool {
	return spread.Count() > 0
}

func SpreadForCount(count int) (Spread, error) {
	switch count {
	case 1:
		return SpreadSingle, nil
	case 2:
		return SpreadTwoCard, nil
	case 3:
		return SpreadThreeCard, nil
	default:
		return "", fmt.Errorf("unsupported spread size %d", count)
	}
}
