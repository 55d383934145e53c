package repository

import "errors"

// Сигнальные ошибки хранилища. Сервисный и HTTP-слои сопоставляют их
// с кодами ответов через errors.Is.
var (
	// ErrUserNotFound — пользователь с таким идентификатором не найден.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists — пользователь с таким email или username уже зарегистрирован.
	ErrUserExists = errors.New("user already exists")
	// ErrPlantNotFound — растение с таким идентификатором не найдено.
	ErrPlantNotFound = errors.New("plant not found")
	// ErrSwapNotFound — заявка на обмен не найдена.
	ErrSwapNotFound = errors.New("swap request not found")
	// ErrInsufficientCredits — операция привела бы к отрицательному балансу.
	ErrInsufficientCredits = errors.New("insufficient credits")
	// ErrStatusConflict — условный переход статуса не выполнен: запись уже
	// не в ожидаемом состоянии (терминальный статус финален).
	ErrStatusConflict = errors.New("status conflict")
	// ErrEventAlreadyProcessed — событие платёжного провайдера с этим
	// идентификатором уже обработано; повторная доставка игнорируется.
	ErrEventAlreadyProcessed = errors.New("payment event already processed")
)
