package entity

import (
	"encoding/base64"
	"time"
)

// CapturedImage закодированный снимок: кадр видео вместе с наложением
type CapturedImage struct {
	ID        string
	CreatedAt time.Time
	Width     int
	Height    int
	MIMEType  string
	Data      []byte
	FileName  string // имя локального файла, содержит метку времени
	Index     int    // позиция в галерее, назначается при добавлении
}

// DataURL представление для встраивания в страницу
func (c *CapturedImage) DataURL() string {
	return "data:" + c.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(c.Data)
}

// UploadPayload бинарные данные снимка для отправки на сервер
type UploadPayload struct {
	FileName string
	MIMEType string
	Data     []byte
}

// UploadOutcome итог загрузки, используется только для логов и метрик
type UploadOutcome struct {
	FileName   string // имя файла, присвоенное сервером
	FilePath   string // адрес файла на сервере
	StatusCode int
	Err        error
}

// OK сообщает об успешной загрузке
func (o UploadOutcome) OK() bool {
	return o.Err == nil
}
