package database

import "errors"

var (
	// ErrNotFound - запись не найдена
	ErrNotFound = errors.New("record not found")
	// ErrSlotTaken - слот уже занят активной бронью или блокировкой
	ErrSlotTaken = errors.New("slot already taken")
	// ErrConcurrentModification - запись была изменена параллельно
	ErrConcurrentModification = errors.New("record was modified concurrently")
	// ErrInvalidTransition - недопустимая смена статуса брони
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrPastDate - дата в прошлом
	ErrPastDate = errors.New("date is in the past")
	// ErrDateTooFar - дата слишком далеко в будущем
	ErrDateTooFar = errors.New("date is too far in the future")
)
