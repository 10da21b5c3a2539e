package constants

import (
	"github.com/go-playground/validator/v10"
)

type ContextKey string

const (
	TxKey     ContextKey = "tx"
	PoolKey   ContextKey = "pool"
	UserKey   ContextKey = "user"
	LoggerKey ContextKey = "logger"
	ParamsKey ContextKey = "params"
)

var Validate = validator.New(validator.WithRequiredStructEnabled())
