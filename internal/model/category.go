package model

// Category is a groundwater sustainability classification.
type Category string

// Sustainability categories. Saline is only ever assigned upstream.
const (
	CategorySafe          Category = "Safe"
	CategorySemiCritical  Category = "Semi-Critical"
	CategoryCritical      Category = "Critical"
	CategoryOverExploited Category = "Over-Exploited"
	CategorySaline        Category = "Saline"
)

// Severity orders categories from least to most stressed. Unknown
// categories (including Saline, which is a quality rather than quantity
// signal) return 0.
func (c Category) Severity() int {
	switch c {
	case CategorySafe:
		return 1
	case CategorySemiCritical:
		return 2
	case CategoryCritical:
		return 3
	case CategoryOverExploited:
		return 4
	default:
		return 0
	}
}
