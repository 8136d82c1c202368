package partitioner

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type (
	// PartitionPlan names a registered function, its args (generally a
	// column name), and the label the derived value lands under in the
	// partition path.
	PartitionPlan struct {
		Func string
		Args []string
		As   string
	}

	PartitionFunc func(row map[string]any, args []string) (string, error)
)

// NowLiteral as a plan's column arg resolves to the current time instead of
// a row value.
const NowLiteral = "now()"

var (
	Functions = make(map[string]PartitionFunc)

	ErrFuncNotFound = errors.New("partition function not found")

	ErrMissingArgs       = errors.New("missing args")
	ErrMissingColumns    = errors.New("missing one or more columns specified in args")
	ErrInvalidColumnType = errors.New("invalid column type")
)

// RegisterFunctions fills the registry. Call once at startup, repeat calls
// are harmless.
func RegisterFunctions() {
	Functions["identity"] = func(row map[string]any, args []string) (string, error) {
		if len(args) == 0 {
			return "", ErrMissingArgs
		}
		value, exists := row[args[0]]
		if !exists {
			return "", ErrMissingColumns
		}
		return fmt.Sprint(value), nil
	}
	Functions["toDay"] = timePart(func(t time.Time) string {
		return fmt.Sprint(t.Day())
	})
	Functions["toMonth"] = timePart(func(t time.Time) string {
		return fmt.Sprint(int(t.Month()))
	})
	Functions["toYear"] = timePart(func(t time.Time) string {
		return fmt.Sprint(t.Year())
	})
	Functions["toYearDay"] = timePart(func(t time.Time) string {
		return fmt.Sprint(t.YearDay())
	})
	Functions["toYearWeek"] = timePart(func(t time.Time) string {
		year, week := t.ISOWeek()
		return fmt.Sprintf("%d-%d", year, week)
	})
	Functions["toWeekDay"] = timePart(func(t time.Time) string {
		return fmt.Sprint(int(t.Weekday()))
	})
}

// RowPartition renders a row's partition path, "as=value" segments joined
// with "/". An empty plan list is an empty path.
func RowPartition(row map[string]any, plans []PartitionPlan) (string, error) {
	parts := make([]string, 0, len(plans))
	for _, plan := range plans {
		f, ok := Functions[plan.Func]
		if !ok {
			return "", fmt.Errorf("%w: %s", ErrFuncNotFound, plan.Func)
		}
		s, err := f(row, plan.Args)
		if err != nil {
			return "", fmt.Errorf("error processing partition function %s: %w", plan.Func, err)
		}
		parts = append(parts, fmt.Sprintf("%s=%s", plan.As, s))
	}
	return strings.Join(parts, "/"), nil
}

func timePart(part func(time.Time) string) PartitionFunc {
	return func(row map[string]any, args []string) (string, error) {
		t, err := timeFromRow(row, args)
		if err != nil {
			return "", fmt.Errorf("error in timeFromRow: %w", err)
		}
		return part(t), nil
	}
}

// timeFromRow resolves the time a plan's first arg points at: the literal
// "now()", or a column holding a time.Time, a YYYY-MM-DDTHH:mm:ss.sssZ
// string, or epoch milliseconds as a float64 (how JSON numbers decode).
func timeFromRow(row map[string]any, args []string) (time.Time, error) {
	if len(args) == 0 {
		return time.Time{}, ErrMissingArgs
	}
	key := args[0]
	if key == NowLiteral {
		return time.Now(), nil
	}
	value, exists := row[key]
	if !exists {
		return time.Time{}, ErrMissingColumns
	}
	switch v := value.(type) {
	case time.Time:
		return v, nil
	case string:
		t, err := time.Parse("2006-01-02T15:04:05.000Z", v)
		if err != nil {
			return time.Time{}, fmt.Errorf("error in time.Parse: %w", err)
		}
		return t, nil
	case float64:
		return time.UnixMilli(int64(v)), nil
	}
	return time.Time{}, ErrInvalidColumnType
}
