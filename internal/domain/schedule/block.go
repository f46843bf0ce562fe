package schedule

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cmlabs-hris/workforce-backend-go/internal/pkg/validator"
)

// ValidateBlocks checks the blocks of one weekly day or exception and returns
// them normalised and sorted by start time. Blocks must tile their span
// exactly: each block starts where the previous one ends. When parent is not
// nil every block must lie inside it.
//
// Errors are validator.ValidationErrors whose Field is "bloques[n]", n being
// the 1-based position in the submitted list for field errors and in the
// sorted list for ordering errors.
func ValidateBlocks(blocks []Block, parent *TimeRange) ([]Block, error) {
	if len(blocks) == 0 {
		return nil, validator.ValidationErrors{{
			Field:   "blocks",
			Message: "at least one block is required; reset the day to clear it",
		}}
	}

	var errs validator.ValidationErrors
	normalized := make([]Block, len(blocks))
	for i, b := range blocks {
		field := blockField(i)
		b.Type = BlockType(strings.TrimSpace(string(b.Type)))

		if b.Type == "" {
			errs = append(errs, validator.ValidationError{Field: field, Message: fmt.Sprintf("block %d: type is required", i+1)})
		} else if len(b.Type) > MaxBlockTypeLength {
			errs = append(errs, validator.ValidationError{Field: field, Message: fmt.Sprintf("block %d: type must not exceed %d characters", i+1, MaxBlockTypeLength)})
		}

		start, startOK := normalizeBlockTime(b.Start)
		end, endOK := normalizeBlockTime(b.End)
		switch {
		case validator.IsEmpty(b.Start):
			errs = append(errs, validator.ValidationError{Field: field, Message: fmt.Sprintf("block %d: start is required", i+1)})
		case !startOK:
			errs = append(errs, validator.ValidationError{Field: field, Message: fmt.Sprintf("block %d: start must be a valid time in HH:MM:SS format", i+1)})
		}
		switch {
		case validator.IsEmpty(b.End):
			errs = append(errs, validator.ValidationError{Field: field, Message: fmt.Sprintf("block %d: end is required", i+1)})
		case !endOK:
			errs = append(errs, validator.ValidationError{Field: field, Message: fmt.Sprintf("block %d: end must be a valid time in HH:MM:SS format", i+1)})
		}
		if startOK && endOK && start >= end {
			errs = append(errs, validator.ValidationError{Field: field, Message: fmt.Sprintf("block %d: start %s must be before end %s", i+1, start, end)})
		}

		b.Start, b.End = start, end
		normalized[i] = b
	}
	if len(errs) > 0 {
		return nil, errs
	}

	sort.SliceStable(normalized, func(i, j int) bool {
		return normalized[i].Start < normalized[j].Start
	})

	for i := 1; i < len(normalized); i++ {
		prev, next := normalized[i-1], normalized[i]
		switch {
		case prev.End > next.Start:
			errs = append(errs, validator.ValidationError{
				Field:   blockField(i),
				Message: fmt.Sprintf("block %d (%s-%s) overlaps block %d which ends at %s", i+1, next.Start, next.End, i, prev.End),
			})
		case prev.End != next.Start:
			errs = append(errs, validator.ValidationError{
				Field:   blockField(i),
				Message: fmt.Sprintf("block %d starts at %s but block %d ends at %s; blocks must be contiguous", i+1, next.Start, i, prev.End),
			})
		}
	}

	if parent != nil {
		for i, b := range normalized {
			if !parent.Contains(b.Start, b.End) {
				errs = append(errs, validator.ValidationError{
					Field:   blockField(i),
					Message: fmt.Sprintf("block %d (%s-%s) is outside the day range %s-%s", i+1, b.Start, b.End, parent.Start, parent.End),
				})
			}
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return normalized, nil
}

// ValidateRange checks a day or exception range. A nil range is valid and
// means "not configured".
func ValidateRange(field string, r *TimeRange) (*TimeRange, error) {
	if r == nil {
		return nil, nil
	}
	start, startOK := validator.NormalizeTime(r.Start)
	end, endOK := validator.NormalizeTime(r.End)

	var errs validator.ValidationErrors
	if !startOK {
		errs = append(errs, validator.ValidationError{Field: field + ".inicio", Message: "start must be a valid time in HH:MM:SS format"})
	}
	if !endOK {
		errs = append(errs, validator.ValidationError{Field: field + ".fin", Message: "end must be a valid time in HH:MM:SS format"})
	}
	if startOK && endOK && start >= end {
		errs = append(errs, validator.ValidationError{Field: field, Message: fmt.Sprintf("start %s must be before end %s", start, end)})
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return &TimeRange{Start: start, End: end}, nil
}

func normalizeBlockTime(s string) (string, bool) {
	if validator.IsEmpty(s) {
		return "", false
	}
	return validator.NormalizeTime(s)
}

func blockField(i int) string {
	return fmt.Sprintf("bloques[%d]", i+1)
}
