package service

import (
	"errors"
	"fmt"
)

// Ошибки сервиса. Обработчики сопоставляют их с HTTP-статусами через errors.Is
var (
	ErrNotFound        = errors.New("не найдено")
	ErrGone            = errors.New("ссылка больше недоступна")
	ErrInvalidArgument = errors.New("некорректный аргумент")
	ErrConflict        = errors.New("конфликт")
	ErrUnauthorized    = errors.New("требуется аутентификация")
	ErrForbidden       = errors.New("доступ запрещён")
)

var (
	ErrInvalidURL    = fmt.Errorf("%w: невалидный URL", ErrInvalidArgument)
	ErrInvalidCode   = fmt.Errorf("%w: невалидный кастомный код", ErrInvalidArgument)
	ErrSpamDomain    = fmt.Errorf("%w: домен в чёрном списке", ErrInvalidArgument)
	ErrInvalidFilter = fmt.Errorf("%w: неизвестный фильтр", ErrInvalidArgument)
	ErrInvalidRange  = fmt.Errorf("%w: начало периода позже конца", ErrInvalidArgument)
	ErrNoUTM         = fmt.Errorf("%w: у ссылки нет UTM", ErrInvalidArgument)

	ErrCodeTaken       = fmt.Errorf("%w: короткий код уже используется", ErrConflict)
	ErrAlreadyArchived = fmt.Errorf("%w: ссылка уже в архиве", ErrConflict)
	ErrNotArchived     = fmt.Errorf("%w: ссылка не в архиве", ErrConflict)
	ErrEmailTaken      = fmt.Errorf("%w: email уже зарегистрирован", ErrConflict)

	ErrNotOwner           = fmt.Errorf("%w: ссылка принадлежит другому пользователю", ErrUnauthorized)
	ErrInvalidCredentials = fmt.Errorf("%w: неверный email или пароль", ErrUnauthorized)
	ErrInvalidToken       = fmt.Errorf("%w: недействительный токен", ErrUnauthorized)
)
