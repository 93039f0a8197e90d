package inventory

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// GroupKey identifies the display group an item belongs to.
func GroupKey(name, unit string, expireDate *time.Time) string {
	expiry := "none"
	if expireDate != nil {
		expiry = strconv.FormatInt(expireDate.UnixMilli(), 10)
	}
	return strings.ToLower(normalizeItemName(name)) + "|" + strings.ToLower(normalizeUnit(unit)) + "|" + expiry
}

// Aggregate folds stock items into display groups. It is pure: the same items
// and clock always produce the same groups in the same order.
func Aggregate(items []StockItem, now time.Time) []DisplayGroup {
	index := make(map[string]int, len(items))
	groups := make([]DisplayGroup, 0, len(items))

	for _, item := range items {
		key := GroupKey(item.Name, item.Unit, item.ExpireDate)
		constituent := Constituent{
			ID:         item.ID,
			Quantity:   item.Quantity,
			ExpireDate: item.ExpireDate,
			CreatedAt:  item.CreatedAt,
		}

		pos, ok := index[key]
		if !ok {
			index[key] = len(groups)
			groups = append(groups, DisplayGroup{
				ID:           key,
				Name:         normalizeItemName(item.Name),
				Unit:         normalizeUnit(item.Unit),
				Quantity:     item.Quantity,
				LowThreshold: item.LowThreshold,
				ExpireDate:   item.ExpireDate,
				Barcode:      item.Barcode,
				Expiring:     item.IsExpiring(now),
				Items:        []Constituent{constituent},
			})
			continue
		}

		group := &groups[pos]
		group.Quantity = group.Quantity.Add(item.Quantity)
		group.LowThreshold = group.LowThreshold.Add(item.LowThreshold)
		group.Expiring = group.Expiring || item.IsExpiring(now)
		if item.ExpireDate != nil && (group.ExpireDate == nil || item.ExpireDate.Before(*group.ExpireDate)) {
			group.ExpireDate = item.ExpireDate
		}
		if group.Barcode == nil {
			group.Barcode = item.Barcode
		}
		group.Items = append(group.Items, constituent)
	}

	for i := range groups {
		groups[i].Low = groups[i].LowThreshold.IsPositive() && groups[i].Quantity.LessThanOrEqual(groups[i].LowThreshold)
		SortForDepletion(groups[i].Items)
	}

	collator := collate.New(language.Thai, collate.IgnoreCase)
	sort.SliceStable(groups, func(i, j int) bool {
		if cmp := collator.CompareString(groups[i].Name, groups[j].Name); cmp != 0 {
			return cmp < 0
		}
		left, right := expiryMillis(groups[i].ExpireDate, 0), expiryMillis(groups[j].ExpireDate, 0)
		if left != right {
			return left < right
		}
		return groups[i].ID < groups[j].ID
	})

	return groups
}

// SortForDepletion orders constituents by expiry ascending (missing expiry
// last), then creation time ascending (missing last), then id.
func SortForDepletion(items []Constituent) {
	const never = int64(1<<63 - 1)
	sort.SliceStable(items, func(i, j int) bool {
		left, right := expiryMillis(items[i].ExpireDate, never), expiryMillis(items[j].ExpireDate, never)
		if left != right {
			return left < right
		}
		leftCreated, rightCreated := never, never
		if !items[i].CreatedAt.IsZero() {
			leftCreated = items[i].CreatedAt.UnixMilli()
		}
		if !items[j].CreatedAt.IsZero() {
			rightCreated = items[j].CreatedAt.UnixMilli()
		}
		if leftCreated != rightCreated {
			return leftCreated < rightCreated
		}
		return items[i].ID < items[j].ID
	})
}

func FilterGroups(groups []DisplayGroup, filter Filter) []DisplayGroup {
	if filter == FilterAll || filter == "" {
		return groups
	}
	result := make([]DisplayGroup, 0, len(groups))
	for _, group := range groups {
		switch {
		case filter == FilterExpiring && group.Expiring:
			result = append(result, group)
		case filter == FilterLow && group.Low:
			result = append(result, group)
		}
	}
	return result
}

// ComputeStats counts non-low groups with stock as items, alongside expiring
// and low groups and the total quantity.
func ComputeStats(groups []DisplayGroup) Stats {
	stats := Stats{TotalQuantity: decimal.Zero}
	for _, group := range groups {
		stats.TotalQuantity = stats.TotalQuantity.Add(group.Quantity)
		if group.Expiring {
			stats.Expiring++
		}
		if group.Low {
			stats.Low++
		} else if group.Quantity.IsPositive() {
			stats.ItemCount++
		}
	}
	return stats
}

func ParseFilter(value string) (Filter, error) {
	switch Filter(strings.ToLower(strings.TrimSpace(value))) {
	case "", FilterAll:
		return FilterAll, nil
	case FilterExpiring, "exp":
		return FilterExpiring, nil
	case FilterLow:
		return FilterLow, nil
	default:
		return "", ErrFilterInvalid
	}
}

func expiryMillis(t *time.Time, missing int64) int64 {
	if t == nil {
		return missing
	}
	return t.UnixMilli()
}

func normalizeItemName(name string) string {
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	return DefaultItemName
}

func normalizeUnit(unit string) string {
	if unit = strings.TrimSpace(unit); unit != "" {
		return unit
	}
	return DefaultUnit
}
