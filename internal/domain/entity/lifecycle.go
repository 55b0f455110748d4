package entity

// InitState состояние инициализации ресурса (модели, камера)
type InitState string

const (
	InitNotStarted InitState = "not_started" // Загрузка не запускалась
	InitLoading    InitState = "loading"     // Идёт загрузка
	InitReady      InitState = "ready"       // Готово к работе
	InitFailed     InitState = "failed"      // Ошибка, см. текст ошибки
)
