package misc

import "golang.org/x/exp/constraints"

func Max[T constraints.Ordered](a, b T) T {
	if a > b {
		return a
	}
	return b
}

func Min[T constraints.Ordered](a, b T) T {
	if a < b {
		return a
	}
	return b
}

// Ptr returns a pointer to a copy of v, for optional JSON fields.
func Ptr[T any](v T) *T {
	return &v
}

// ChangePercent is the change from first to last in percent, 0 when first is not positive.
func ChangePercent[T constraints.Float](first, last T) T {
	if first <= 0 {
		return 0
	}
	return (last - first) * 100 / first
}

// Mean is the arithmetic mean of vs, 0 for none.
func Mean[T constraints.Float](vs ...T) T {
	if len(vs) == 0 {
		return 0
	}
	var sum T
	for _, v := range vs {
		sum += v
	}
	return sum / T(len(vs))
}

// StringLimit cuts s to at most n bytes, ending with "..." when it had to cut.
func StringLimit(s string, n int) string {
	if n < 0 {
		return ""
	}
	if n <= 3 {
		return s[:Min(n, len(s))]
	}
	if len(s) > n {
		return s[:n-3] + "..."
	}
	return s
}

func BytesLimit(bs []byte, n int) []byte {
	if n < 0 {
		return nil
	}
	if n <= 3 {
		return bs[:Min(n, len(bs))]
	}
	if len(bs) > n {
		out := make([]byte, 0, n)
		return append(append(out, bs[:n-3]...), "..."...)
	}
	return bs
}

// LogName shortens product and store names for log lines.
func LogName(s string) string {
	return StringLimit(s, 45)
}
