package hal

// ResetActive unpublishes the chip so tests can call Init again.
func ResetActive() { active.Store(nil) }
