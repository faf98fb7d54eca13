package utils

// Guard runs a cleanup function when a constructor bails out early. Typical use:
//
//	guard := NewGuard(func() { region.Close() })
//	defer guard.OnFail()
//	if err != nil { return nil, err }
//	guard.Success()
//	return obj, nil
type Guard struct {
	OnFail  func()
	success bool
}

// NewGuard returns a Guard that calls onFailCleanup from OnFail unless Success was called first.
func NewGuard(onFailCleanup func()) *Guard {
	ret := &Guard{}
	ret.OnFail = func() {
		if !ret.success {
			onFailCleanup()
		}
	}
	return ret
}

// Success marks the guarded operation as complete; OnFail becomes a no-op.
func (guard *Guard) Success() {
	guard.success = true
}
