package fitness

import (
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	canonicalValidator     *validator.Validate
	canonicalValidatorOnce sync.Once
)

func recordValidator() *validator.Validate {
	canonicalValidatorOnce.Do(func() {
		canonicalValidator = validator.New(validator.WithRequiredStructEnabled())
	})
	return canonicalValidator
}

// checkCanonical 确认强制转换后的记录满足规范日期与非负数约束
func checkCanonical(records Records) error {
	v := recordValidator()

	for i := range records.Meals {
		if err := v.Struct(records.Meals[i]); err != nil {
			return fmt.Errorf("%w: meal #%d: %v", ErrInvariant, i+1, err)
		}
	}
	for i := range records.Activities {
		if err := v.Struct(records.Activities[i]); err != nil {
			return fmt.Errorf("%w: activity #%d: %v", ErrInvariant, i+1, err)
		}
	}
	for i := range records.Water {
		if err := v.Struct(records.Water[i]); err != nil {
			return fmt.Errorf("%w: water #%d: %v", ErrInvariant, i+1, err)
		}
	}
	return nil
}
