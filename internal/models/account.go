package models

// Account представляет учетную запись пользователя.
// PasswordHash хранит bcrypt-хеш и никогда не отдается клиенту.
type Account struct {
	ID           string `json:"id"`
	UserName     string `json:"userName"`
	PasswordHash string `json:"-"`
}

// WithID возвращает копию учетной записи с назначенным ID.
func (a Account) WithID(id string) Account {
	a.ID = id
	return a
}

// WithField возвращает копию учетной записи с одним измененным полем.
// Учетные записи после регистрации не меняются, но хранилище требует этот метод.
func (a Account) WithField(name, value string) (Account, error) {
	switch name {
	case "userName":
		a.UserName = value
	case "passwordHash":
		a.PasswordHash = value
	default:
		return a, ErrUnknownField
	}
	return a, nil
}

// Credentials представляет тело запроса на регистрацию или вход.
type Credentials struct {
	ID       string `json:"id,omitempty"`
	UserName string `json:"userName"`
	Password string `json:"password"`
}

// RegisterResponse представляет тело ответа при успешной регистрации.
type RegisterResponse struct {
	UserID string `json:"userId"`
}

// LoginResponse представляет тело ответа при успешном входе.
type LoginResponse struct {
	Token string `json:"token"`
}
