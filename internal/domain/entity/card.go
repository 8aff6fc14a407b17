package entity

import "image"

// Заголовки экрана поиска карты.
const (
	TitleFindCard    = "Find Card"
	TitleCardFound   = "Card Found"
	TitleInvalidCard = "Invalid Card"
)

// CardTitle возвращает заголовок для вердикта проверки.
func CardTitle(valid bool) string {
	if valid {
		return TitleCardFound
	}
	return TitleInvalidCard
}

// CardCandidate снимок карты с вердиктом. Вердикт зависит только от содержимого снимка.
type CardCandidate struct {
	Image image.Image
	Valid bool
	Title string
}

// NewCardCandidate создаёт кандидата с заголовком по вердикту.
func NewCardCandidate(img image.Image, valid bool) *CardCandidate {
	return &CardCandidate{Image: img, Valid: valid, Title: CardTitle(valid)}
}
