package optimistic

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rpggio/stocksync/internal/domain/inventory"
	"github.com/rpggio/stocksync/internal/domain/usage"
	"github.com/rpggio/stocksync/internal/gateway"
)

// ClassPrecondition marks a mutation rejected locally before any request.
const ClassPrecondition gateway.Class = "precondition"

// Op names a mutation.
type Op string

const (
	OpCreate   Op = "create"
	OpUpdate   Op = "update"
	OpMovement Op = "movement"
	OpDelete   Op = "delete"
	OpRestore  Op = "restore"
	OpPurge    Op = "purge"
)

const (
	duplicateSKUMessage = "A product with this SKU already exists."
	skuLimitMessage     = "SKU limit reached. Please upgrade your plan to add more items."
)

var genericMessages = map[Op]string{
	OpCreate:   "Failed to add item.",
	OpUpdate:   "Failed to update item.",
	OpMovement: "Failed to record stock movement.",
	OpDelete:   "Failed to move item to trash.",
	OpRestore:  "Failed to restore item.",
	OpPurge:    "Failed to delete item permanently.",
}

// MutationError is the user-facing failure of a mutation.
type MutationError struct {
	Op      Op
	ItemID  string
	Class   gateway.Class
	Message string
	Err     error
}

func (e *MutationError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Op, e.ItemID, e.Message)
}

func (e *MutationError) Unwrap() error {
	return e.Err
}

// IsPermission reports whether err is a permission denial.
func IsPermission(err error) bool {
	var me *MutationError
	return errors.As(err, &me) && me.Class == gateway.ClassPermission
}

func newMutationError(op Op, id string, err error) *MutationError {
	me := &MutationError{Op: op, ItemID: id, Err: err, Message: genericMessages[op]}

	if se, ok := gateway.AsStatusError(err); ok {
		me.Class = se.Class
		switch {
		case se.Class == gateway.ClassPermission:
			reason := se.Message
			if reason == "" {
				reason = "you do not have permission to perform this action."
			}
			me.Message = "Admins only: " + reason
		case se.Class == gateway.ClassValidation && isDuplicateSKU(se.Message):
			me.Message = duplicateSKUMessage
		case se.Message != "":
			me.Message = se.Message
		}
		return me
	}

	switch {
	case errors.Is(err, usage.ErrLimitReached):
		me.Class = gateway.ClassQuota
		me.Message = skuLimitMessage
	case errors.Is(err, gateway.ErrConnectivity):
		me.Class = gateway.ClassConnectivity
		me.Message = "Unable to reach the server."
	case errors.Is(err, inventory.ErrItemNotFound),
		errors.Is(err, inventory.ErrInvalidTransition),
		errors.Is(err, inventory.ErrInvalidInput),
		errors.Is(err, inventory.ErrInvalidAmount),
		errors.Is(err, inventory.ErrInvalidMovementType):
		me.Class = ClassPrecondition
		me.Message = err.Error()
	default:
		me.Class = gateway.ClassServer
	}
	return me
}

func isDuplicateSKU(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "sku") && strings.Contains(lower, "already exists")
}
