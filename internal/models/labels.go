package models

// Отображение значений-перечислений хранилища в человеко-читаемые подписи.
// Чистые таблицы соответствия, бизнес-логика их не использует.

// SunlightLabels — подписи для значений освещённости.
var SunlightLabels = map[string]string{
	"Full_Sun": "Full Sun",
	"Partial":  "Partial",
	"Shade":    "Shade",
}

// DifficultyLabels — подписи для значений сложности ухода.
var DifficultyLabels = map[string]string{
	"Easy":     "Easy",
	"Moderate": "Moderate",
	"Hard":     "Hard",
}

// WaterNeedsLabels — подписи для значений потребности в поливе.
var WaterNeedsLabels = map[string]string{
	"Low":    "Low",
	"Medium": "Medium",
	"High":   "High",
}
