package domain

import "errors"

var (
	// ErrOutOfStock — товар нельзя добавить: saleQuantity равно нулю.
	ErrOutOfStock = errors.New("product out of stock")
	// ErrInsufficientStock — новое количество превышает доступный остаток строки.
	ErrInsufficientStock = errors.New("not enough stock available")
	// ErrItemNotInCart — изменение количества для товара, которого нет в корзине.
	ErrItemNotInCart = errors.New("item not in cart")
	// ErrEmptyCart — оформление пустой корзины.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrInsufficientPayment — внесённая сумма меньше итога черновика.
	ErrInsufficientPayment = errors.New("insufficient payment amount")
	// ErrPaymentMethodRequired — не указан способ оплаты.
	ErrPaymentMethodRequired = errors.New("payment method is required")
	// ErrCheckoutInProgress — предыдущая отправка продажи ещё не завершилась.
	ErrCheckoutInProgress = errors.New("checkout already in progress")
	// ErrAuthenticationRequired — сервер ответил 401 или токен отсутствует/истёк.
	ErrAuthenticationRequired = errors.New("authentication required")
	// ErrNetworkOrServer — любая другая ошибка транспорта или ответ не 2xx.
	ErrNetworkOrServer = errors.New("network or server error")
	// ErrInvalidLoginResponse — в ответе логина нет токена.
	ErrInvalidLoginResponse = errors.New("invalid login response")
	// ErrValidation — входные данные формы не прошли проверку до вызова API.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound — запись не найдена в локальном снимке каталога.
	ErrNotFound = errors.New("not found")
	// ErrOutboxPublish — ошибка при публикации сообщения из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")
)

// IsAuthError проверяет, требует ли ошибка повторного входа.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrAuthenticationRequired)
}

// IsLocalRejection сообщает, что ошибка — синхронная проверка корзины без обращения к сети.
func IsLocalRejection(err error) bool {
	return errors.Is(err, ErrOutOfStock) ||
		errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrItemNotInCart) ||
		errors.Is(err, ErrEmptyCart) ||
		errors.Is(err, ErrInsufficientPayment) ||
		errors.Is(err, ErrPaymentMethodRequired) ||
		errors.Is(err, ErrCheckoutInProgress)
}

// UserMessage возвращает текст для кассира; у каждой ошибки таксономии он свой.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrOutOfStock):
		return "Product out of stock!"
	case errors.Is(err, ErrInsufficientStock):
		return "Not enough stock available!"
	case errors.Is(err, ErrItemNotInCart):
		return "Item is not in the cart."
	case errors.Is(err, ErrEmptyCart):
		return "Cart is empty!"
	case errors.Is(err, ErrInsufficientPayment):
		return "Insufficient payment amount!"
	case errors.Is(err, ErrPaymentMethodRequired):
		return "Choose a payment method."
	case errors.Is(err, ErrCheckoutInProgress):
		return "Sale is already being submitted, please wait."
	case errors.Is(err, ErrAuthenticationRequired):
		return "Session expired, please log in again."
	case errors.Is(err, ErrInvalidLoginResponse):
		return "Login failed: server returned no token."
	case errors.Is(err, ErrValidation):
		return "Invalid input: " + err.Error()
	case errors.Is(err, ErrNetworkOrServer):
		return "Server request failed: " + err.Error()
	case errors.Is(err, ErrNotFound):
		return "Not found: " + err.Error()
	default:
		return "Unexpected error: " + err.Error()
	}
}
