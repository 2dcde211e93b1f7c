package handler

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"shop-economy/internal/application/auth"
	"shop-economy/internal/domain/currency"
	"shop-economy/internal/domain/devmenu"
	"shop-economy/internal/domain/item"
	"shop-economy/internal/domain/modifier"
	"shop-economy/internal/domain/savegame"
	"shop-economy/internal/domain/shop"
	"shop-economy/internal/domain/transaction"
)

type codeMapping struct {
	target error
	code   codes.Code
}

// 上から順に判定する
var codeMappings = []codeMapping{
	{currency.ErrInsufficientBalance, codes.FailedPrecondition},
	{shop.ErrShopInUse, codes.Aborted},
	{item.ErrItemNotTradable, codes.FailedPrecondition},
	{item.ErrUnknownItem, codes.NotFound},
	{shop.ErrUnknownShop, codes.NotFound},
	{modifier.ErrModifierNotFound, codes.NotFound},
	{transaction.ErrEventNotFound, codes.NotFound},
	{savegame.ErrSlotNotFound, codes.NotFound},
	{devmenu.ErrOptionNotFound, codes.NotFound},
	{modifier.ErrNoopModifier, codes.FailedPrecondition},
	{modifier.ErrAlreadyExpired, codes.FailedPrecondition},
	{savegame.ErrCorruptSave, codes.FailedPrecondition},
	{modifier.ErrInvalidModifier, codes.InvalidArgument},
	{shop.ErrInvalidShopID, codes.InvalidArgument},
	{item.ErrInvalidItemID, codes.InvalidArgument},
	{transaction.ErrInvalidQuantity, codes.InvalidArgument},
	{transaction.ErrInvalidEvent, codes.InvalidArgument},
	{currency.ErrInvalidAmount, codes.InvalidArgument},
	{currency.ErrAmountTooLarge, codes.InvalidArgument},
	{currency.ErrBalanceOutOfRange, codes.InvalidArgument},
	{savegame.ErrInvalidSlotName, codes.InvalidArgument},
	{auth.ErrInvalidPlayerID, codes.InvalidArgument},
	{devmenu.ErrInvalidOption, codes.InvalidArgument},
}

// toStatus ドメインエラーをgRPCステータスに変換する
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	for _, m := range codeMappings {
		if errors.Is(err, m.target) {
			return status.Error(m.code, err.Error())
		}
	}
	return status.Error(codes.Internal, "internal server error")
}
