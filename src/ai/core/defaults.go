package core

type number interface {
	~int | ~int32 | ~int64 | ~float64
}

// Or returns v when it is positive, otherwise def.
func Or[T number](v, def T) T {
	if v > 0 {
		return v
	}
	return def
}

// Float returns a pointer to v, for optional settings where zero is meaningful.
func Float(v float64) *float64 {
	return &v
}

// FloatOr returns *p when set, otherwise def.
func FloatOr(p *float64, def float64) float64 {
	if p != nil {
		return *p
	}
	return def
}
