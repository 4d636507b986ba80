package alive

func ResetInstance() { instance.Store(nil) }
