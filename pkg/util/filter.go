package util

// InPlaceFilter keeps the elements of values for which keep returns true, reusing the backing array
func InPlaceFilter[T any](values *[]T, keep func(T) bool) {
	filtered := (*values)[:0]
	for _, value := range *values {
		if keep(value) {
			filtered = append(filtered, value)
		}
	}

	*values = filtered
}
