package mcp

import (
	"errors"
	"fmt"

	"github.com/rpggio/stocksync/internal/domain/inventory"
	"github.com/rpggio/stocksync/internal/gateway"
	"github.com/rpggio/stocksync/internal/optimistic"
	"github.com/rpggio/stocksync/internal/tenant"
)

// APIError is the error returned from a tool call.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	if e.RecoveryHint == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.RecoveryHint)
}

var classCodes = map[gateway.Class]struct {
	code string
	hint string
}{
	gateway.ClassQuota:           {"QUOTA_EXCEEDED", "Upgrade the plan or purge trashed items"},
	gateway.ClassRateLimit:       {"RATE_LIMITED", "Wait a minute before retrying"},
	gateway.ClassPermission:      {"PERMISSION_DENIED", "Ask an organization admin"},
	gateway.ClassNotFound:        {"NOT_FOUND", "Call list_items or list_trash for current ids"},
	gateway.ClassValidation:      {"INVALID_INPUT", ""},
	gateway.ClassAuth:            {"UNAUTHORIZED", "Check the configured token"},
	gateway.ClassConnectivity:    {"UNREACHABLE", "Check the API base URL"},
	gateway.ClassServer:          {"SERVER_ERROR", ""},
	optimistic.ClassPrecondition: {"INVALID_INPUT", ""},
}

// MapError converts engine errors to tool errors. Unknown errors pass
// through unchanged.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	var me *optimistic.MutationError
	if errors.As(err, &me) {
		if errors.Is(err, inventory.ErrItemNotFound) {
			return &APIError{Code: "NOT_FOUND", Message: me.Message, RecoveryHint: classCodes[gateway.ClassNotFound].hint}
		}
		c, ok := classCodes[me.Class]
		if !ok {
			return &APIError{Code: "FAILED", Message: me.Message}
		}
		return &APIError{Code: c.code, Message: me.Message, RecoveryHint: c.hint}
	}
	if se, ok := gateway.AsStatusError(err); ok {
		c := classCodes[se.Class]
		return &APIError{Code: c.code, Message: se.Message, RecoveryHint: c.hint}
	}
	switch {
	case errors.Is(err, gateway.ErrConnectivity):
		c := classCodes[gateway.ClassConnectivity]
		return &APIError{Code: c.code, Message: "Unable to reach the server.", RecoveryHint: c.hint}
	case errors.Is(err, tenant.ErrNoSession):
		return &APIError{Code: "UNAUTHORIZED", Message: "not signed in", RecoveryHint: "Set STOCKSYNC_TOKEN"}
	case errors.Is(err, inventory.ErrItemNotFound):
		return &APIError{Code: "NOT_FOUND", Message: "item not found", RecoveryHint: classCodes[gateway.ClassNotFound].hint}
	}
	return err
}
