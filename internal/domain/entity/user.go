package entity

// FlowState какой сценарий сейчас открыт у пользователя
type FlowState string

const (
	StateIdle                    FlowState = "idle"                        // Главное меню
	StateCardScanning            FlowState = "card_scanning"               // Ожидание снимка карты
	StateImagePickingForFaceScan FlowState = "image_picking_for_face_scan" // Ожидание фото для поиска лиц
	StateLiveFaceScanning        FlowState = "live_face_scanning"          // Идёт поиск лиц с камеры
)

// Варианты после нажатия "Scan Face"
const (
	ChoiceFromImage = "From Image"
	ChoiceLive      = "Live Face Detection"
)

// FaceScanChoices возвращает варианты сканирования лица в порядке показа
func FaceScanChoices() []string {
	return []string{ChoiceFromImage, ChoiceLive}
}

// User представляет пользователя бота
type User struct {
	ID        int64     // Telegram User ID
	ChatID    int64     // Telegram Chat ID
	State     FlowState // Текущий сценарий
	Title     string    // Заголовок экрана, отражает последний вердикт по карте
	CardValid *bool     // Последний вердикт, nil если карту ещё не проверяли
}

// NewUser создаёт нового пользователя с начальным состоянием
func NewUser(userID, chatID int64) *User {
	return &User{
		ID:     userID,
		ChatID: chatID,
		State:  StateIdle,
		Title:  TitleFindCard,
	}
}

// SetState обновляет состояние пользователя
func (u *User) SetState(state FlowState) {
	u.State = state
}

// AttachCardVerdict сохраняет вердикт проверки карты и обновляет заголовок
func (u *User) AttachCardVerdict(valid bool) {
	u.CardValid = &valid
	u.Title = CardTitle(valid)
}

// Clone возвращает независимую копию пользователя
func (u *User) Clone() *User {
	c := *u
	if u.CardValid != nil {
		v := *u.CardValid
		c.CardValid = &v
	}
	return &c
}
