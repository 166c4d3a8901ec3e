package utils

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/bsm/redislock"
	"github.com/go-playground/validator/v10"
	"github.com/mmdatafocus/roastery_backend/config"
	"github.com/shopspring/decimal"
	"github.com/ttacon/libphonenumber"
)

var CountryCode = "MM"

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

var validate = validator.New()

func IsValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

func ValidatePhoneNumber(phoneNumber, countryCode string) error {
	p, err := libphonenumber.Parse(phoneNumber, countryCode)
	if err != nil {
		return err
	}

	if !libphonenumber.IsValidNumber(p) {
		return fmt.Errorf("phone number is not valid")
	}

	return nil
}

// ValidateStruct runs `validate` struct tags on input.
func ValidateStruct(input interface{}) error {
	return validate.Struct(input)
}

func ProcessValidationErrors(err error) map[string]string {
	errorResponse := make(map[string]string)

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		errorResponse["error"] = err.Error()
		return errorResponse
	}
	for _, ve := range validationErrors {
		errorResponse[ve.Field()] = ve.Tag()
	}

	return errorResponse
}

// safely dereference pointer of type T, nil pointer return zero value or optional default
func DereferencePtr[T any](ptr *T, defaults ...T) T {
	var defaultValue T
	if len(defaults) > 0 {
		defaultValue = defaults[0]
	}
	if ptr == nil {
		return defaultValue
	}
	return *ptr
}

// returns slice removing duplicate elements
func UniqueSlice[T comparable](slice []T) []T {
	inResult := make(map[T]bool)
	var result []T
	for _, elm := range slice {
		if _, ok := inResult[elm]; !ok {
			inResult[elm] = true
			result = append(result, elm)
		}
	}
	return result
}

func ParseDecimal(value string) (decimal.Decimal, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return decimal.Zero, nil
	}
	dec, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid decimal %q: %w", value, err)
	}
	return dec, nil
}

var ErrLockNotObtained = errors.New("could not obtain lock")

// WithLock runs fn while holding the redis lock "<lockType>:<key>".
// Returns ErrLockNotObtained when another holder has it.
func WithLock(ctx context.Context, lockType string, key string, ttl time.Duration, moduleName string, functionName string, fn func(ctx context.Context) error) error {
	logger := config.GetLogger()
	locker := config.GetRedisLock()
	if locker == nil {
		config.LogError(logger, moduleName, functionName, "Redis lock not initialized", key, errors.New("redis lock is nil"))
		return errors.New("service not ready (redis lock not initialized)")
	}
	lockKey := fmt.Sprintf("%s:%s", lockType, key)
	lock, err := locker.Obtain(ctx, lockKey, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return ErrLockNotObtained
	} else if err != nil {
		config.LogError(logger, moduleName, functionName, "Error obtaining lock", lockKey, err)
		return err
	}
	defer func() {
		_ = lock.Release(context.Background())
	}()

	return fn(ctx)
}
