package cart

import "errors"

var (
	ErrInvalidInput  = errors.New("invalid cart input")
	ErrItemNotFound  = errors.New("item not found in cart")
	ErrDuplicateItem = errors.New("item already in cart")
	ErrStorage       = errors.New("cart storage failure")
)

// Messages shown to the shopper through the notifier.
const (
	MsgItemAdded     = "Item adicionado ao carrinho!"
	MsgAlreadyInCart = "Este item já está no seu carrinho"
	MsgItemRemoved   = "Item removido do carrinho"
	MsgCartCleared   = "Carrinho limpo"
	MsgSaveFailed    = "Erro ao salvar carrinho"
)
